package async

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustmon/lola/value"
)

func sliceRecv(items []value.Value) func(context.Context) (value.Value, bool, error) {
	i := 0
	return func(ctx context.Context) (value.Value, bool, error) {
		if i >= len(items) {
			return value.Unknown(), false, nil
		}
		v := items[i]
		i++
		return v, true, nil
	}
}

func TestVarManagerFanOut(t *testing.T) {
	ctx := context.Background()
	m := newVarManager(value.New("x"), 4, sliceRecv([]value.Value{value.Int(1), value.Int(2), value.Int(3)}))

	sub1, err := m.Subscribe(ctx, ctx)
	require.NoError(t, err)
	sub2, err := m.Subscribe(ctx, ctx)
	require.NoError(t, err)

	require.NoError(t, m.Run(ctx))

	var got1, got2 []int64
	for v := range sub1 {
		i, _ := v.AsInt()
		got1 = append(got1, i)
	}
	for v := range sub2 {
		i, _ := v.AsInt()
		got2 = append(got2, i)
	}
	assert.Equal(t, []int64{1, 2, 3}, got1)
	assert.Equal(t, []int64{1, 2, 3}, got2)
	assert.Equal(t, Closed, m.Stage())
}

func TestVarManagerSubscribeAfterCloseRejected(t *testing.T) {
	ctx := context.Background()
	m := newVarManager(value.New("x"), 1, sliceRecv(nil))
	require.NoError(t, m.Run(ctx))

	_, err := m.Subscribe(ctx, ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestVarManagerPrunesDisconnectedSubscriber(t *testing.T) {
	ctx := context.Background()
	sctx, cancel := context.WithCancel(ctx)
	m := newVarManager(value.New("x"), 1, sliceRecv([]value.Value{value.Int(1), value.Int(2)}))

	_, err := m.Subscribe(ctx, sctx)
	require.NoError(t, err)
	cancel()

	// give the cancellation a moment to be observable on the next tick
	time.Sleep(10 * time.Millisecond)
	more, err := m.Tick(ctx)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Empty(t, m.subscribers, "the cancelled subscriber is pruned")
}

func TestContextAdvanceClock(t *testing.T) {
	ctx := context.Background()
	c := NewContext()
	c.Register(value.New("x"), 2, sliceRecv([]value.Value{value.Int(1)}))
	c.Register(value.New("y"), 2, sliceRecv([]value.Value{value.Int(2)}))

	require.NoError(t, c.AdvanceClock(ctx))
	assert.Equal(t, 1, c.Clock())
}

func TestSubcontextRestrictsVisibility(t *testing.T) {
	ctx := context.Background()
	c := NewContext()
	x, y := value.New("x"), value.New("y")
	c.Register(x, 1, sliceRecv([]value.Value{value.Int(1)}))
	c.Register(y, 1, sliceRecv([]value.Value{value.Int(2)}))

	sub := c.Subcontext([]value.VarName{x})
	_, err := sub.Subscribe(ctx, x, ctx)
	assert.NoError(t, err)
	_, err = sub.Subscribe(ctx, y, ctx)
	assert.Error(t, err)
}
