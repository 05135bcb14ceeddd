package streamutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSliceAndCollect(t *testing.T) {
	ctx := context.Background()
	s := FromSlice(ctx, []int{1, 2, 3})
	got, err := Collect(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMap(t *testing.T) {
	ctx := context.Background()
	s := FromSlice(ctx, []int{1, 2, 3})
	mapped := Map(ctx, s, func(i int) int { return i * 2 })
	got, err := Collect(ctx, mapped)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, got)
}

func TestZip(t *testing.T) {
	ctx := context.Background()
	a := FromSlice(ctx, []int{1, 2, 3})
	b := FromSlice(ctx, []string{"a", "b", "c", "d"})
	zipped := Zip(ctx, a, b)
	got, err := Collect(ctx, zipped)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Pair[int, string]{First: 2, Second: "b"}, got[1])
}

func TestTake(t *testing.T) {
	ctx := context.Background()
	s := FromSlice(ctx, []int{1, 2, 3, 4, 5})
	got, err := Collect(ctx, Take(ctx, s, 2))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestRecvRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := New[int](0)
	cancel()
	_, _, err := s.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDropGuardRunsCallbackOnExhaustion(t *testing.T) {
	ctx := context.Background()
	s := FromSlice(ctx, []int{1, 2})

	done := make(chan struct{})
	guarded := DropGuard(ctx, s, func() { close(done) })
	_, err := Collect(ctx, guarded)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onDrop was not called")
	}
}

func TestHistoryAppendAndPrune(t *testing.T) {
	ctx := context.Background()
	s := FromSlice(ctx, []int{10, 20, 30})
	tapped, hist := StoreHistory(ctx, s)
	_, err := Collect(ctx, tapped)
	require.NoError(t, err)

	v, ok := hist.At(1)
	require.True(t, ok)
	assert.Equal(t, 20, v)

	hist.Prune(2)
	_, ok = hist.At(0)
	assert.False(t, ok)
	v, ok = hist.At(2)
	require.True(t, ok)
	assert.Equal(t, 30, v)
}
