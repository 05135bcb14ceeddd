package semantics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/distribution"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// feed registers name as an input variable manager fed by items, in the
// style of runtime/async's own sliceRecv test helper (unexported there, so
// rebuilt here).
func feed(actx *async.Context, name value.VarName, items []value.Value) {
	i := 0
	actx.Register(name, 4, func(context.Context) (value.Value, bool, error) {
		if i >= len(items) {
			return value.Unknown(), false, nil
		}
		v := items[i]
		i++
		return v, true, nil
	})
}

// drain runs combinator c to exhaustion by repeatedly calling it alongside
// AdvanceClock, the way a real runtime loop pulls one output value per
// logical tick.
func drain(t *testing.T, ctx context.Context, actx *async.Context, c Combinator, maxTicks int) []value.Value {
	t.Helper()
	var out []value.Value
	for i := 0; i < maxTicks; i++ {
		done := make(chan struct{})
		var v value.Value
		var ok bool
		var err error
		go func() {
			defer close(done)
			v, ok, err = c(ctx)
		}()
		require.NoError(t, actx.AdvanceClock(ctx))
		<-done
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

type stubParser struct {
	expr ast.Expr
	err  error
}

func (p *stubParser) Parse(s string) (ast.Expr, error) { return p.expr, p.err }

// mapParser resolves a probe string to a fixed expression per entry,
// standing in for a real surface-syntax parser in tests that need distinct
// strings to bootstrap distinct substreams.
type mapParser map[string]ast.Expr

func (p mapParser) Parse(s string) (ast.Expr, error) {
	e, ok := p[s]
	if !ok {
		return nil, assert.AnError
	}
	return e, nil
}

func ints(vs []value.Value) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		n, _ := v.AsInt()
		out[i] = n
	}
	return out
}

func TestCompileLit(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	c, err := Compile(ctx, ast.Lit{Value: value.Int(7)}, actx, nil)
	require.NoError(t, err)
	v, ok, err := c(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Equal(t, int64(7), n)
}

func TestCompileVar(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	x := value.New("x")
	feed(actx, x, []value.Value{value.Int(1), value.Int(2), value.Int(3)})

	c, err := Compile(ctx, ast.Var{Name: x}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 5)
	assert.Equal(t, []int64{1, 2, 3}, ints(got))
}

func TestCompileBinOpAdd(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	x, y := value.New("x"), value.New("y")
	feed(actx, x, []value.Value{value.Int(1), value.Int(2)})
	feed(actx, y, []value.Value{value.Int(10), value.Int(20)})

	c, err := Compile(ctx, ast.BinOp{
		Left:  ast.Var{Name: x},
		Right: ast.Var{Name: y},
		Op:    ast.Add,
	}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 3)
	assert.Equal(t, []int64{11, 22}, ints(got))
}

func TestCompileSIndexPastWithDefault(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	x := value.New("x")
	feed(actx, x, []value.Value{value.Int(1), value.Int(2), value.Int(3)})

	c, err := Compile(ctx, ast.SIndex{
		X:       ast.Var{Name: x},
		Offset:  -1,
		Default: ast.Lit{Value: value.Int(-1)},
	}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 6)
	// Warm-up tick yields the default; then the history is replayed one
	// tick late; then, once x is exhausted, the buffered tail drains.
	assert.Equal(t, []int64{-1, 1, 2, 3}, ints(got))
}

func TestCompileSIndexFutureWithDefault(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	x := value.New("x")
	feed(actx, x, []value.Value{value.Int(1), value.Int(2), value.Int(3), value.Int(4)})

	c, err := Compile(ctx, ast.SIndex{
		X:       ast.Var{Name: x},
		Offset:  2,
		Default: ast.Lit{Value: value.Int(-1)},
	}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 5)
	assert.Equal(t, []int64{-1, -1, 3, 4}, ints(got))
}

func TestCompileDefault(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	x := value.New("x")
	feed(actx, x, []value.Value{value.Unknown(), value.Int(5)})

	c, err := Compile(ctx, ast.Default{
		X: ast.Var{Name: x},
		D: ast.Lit{Value: value.Int(0)},
	}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 3)
	assert.Equal(t, []int64{0, 5}, ints(got))
}

func TestCompileUpdate(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	e1, e2 := value.New("e1"), value.New("e2")
	feed(actx, e1, []value.Value{value.Int(1), value.Int(2), value.Int(3)})
	feed(actx, e2, []value.Value{value.Unknown(), value.Int(20), value.Unknown()})

	c, err := Compile(ctx, ast.Update{
		E1: ast.Var{Name: e1},
		E2: ast.Var{Name: e2},
	}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 4)
	// e1 is pulled every tick, so where e2 is Unknown each tick observes
	// e1's value for that same tick: 1 at tick1 and 3 at tick3.
	assert.Equal(t, []int64{1, 20, 3}, ints(got))
}

func TestCompileWhen(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	x := value.New("x")
	feed(actx, x, []value.Value{value.Unknown(), value.Int(1), value.Int(2)})

	c, err := Compile(ctx, ast.When{X: ast.Var{Name: x}}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 4)
	require.Len(t, got, 3)
	b0, _ := got[0].AsBool()
	b1, _ := got[1].AsBool()
	b2, _ := got[2].AsBool()
	assert.False(t, b0)
	assert.True(t, b1)
	assert.True(t, b2)
}

func TestCompileIsDefined(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	x := value.New("x")
	feed(actx, x, []value.Value{value.Unknown(), value.Int(1)})

	c, err := Compile(ctx, ast.IsDefined{X: ast.Var{Name: x}}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 3)
	require.Len(t, got, 2)
	b0, _ := got[0].AsBool()
	b1, _ := got[1].AsBool()
	assert.False(t, b0)
	assert.True(t, b1)
}

func TestCompileListOps(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()

	listLit := ast.List{Elems: []ast.Expr{
		ast.Lit{Value: value.Int(1)},
		ast.Lit{Value: value.Int(2)},
		ast.Lit{Value: value.Int(3)},
	}}

	head, err := Compile(ctx, ast.LHead{X: listLit}, actx, nil)
	require.NoError(t, err)
	hv, ok, err := head(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	hn, _ := hv.AsInt()
	assert.Equal(t, int64(1), hn)

	tail, err := Compile(ctx, ast.LTail{X: listLit}, actx, nil)
	require.NoError(t, err)
	tv, ok, err := tail(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	titems, _ := tv.AsList()
	assert.Equal(t, []int64{2, 3}, ints(titems))

	idx, err := Compile(ctx, ast.LIndex{List: listLit, Index: ast.Lit{Value: value.Int(5)}}, actx, nil)
	require.NoError(t, err)
	iv, ok, err := idx(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, iv.IsUnknown())

	app, err := Compile(ctx, ast.LAppend{List: listLit, Elem: ast.Lit{Value: value.Int(4)}}, actx, nil)
	require.NoError(t, err)
	av, ok, err := app(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	aitems, _ := av.AsList()
	assert.Equal(t, []int64{1, 2, 3, 4}, ints(aitems))

	concat, err := Compile(ctx, ast.LConcat{A: listLit, B: listLit}, actx, nil)
	require.NoError(t, err)
	cv, ok, err := concat(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	citems, _ := cv.AsList()
	assert.Equal(t, []int64{1, 2, 3, 1, 2, 3}, ints(citems))
}

// callOnce runs c once while concurrently advancing actx, the minimal
// version of drain for assertions that only need a single tick's result.
func callOnce(t *testing.T, ctx context.Context, actx *async.Context, c Combinator) (value.Value, bool, error) {
	t.Helper()
	done := make(chan struct{})
	var v value.Value
	var ok bool
	var err error
	go func() {
		defer close(done)
		v, ok, err = c(ctx)
	}()
	require.NoError(t, actx.AdvanceClock(ctx))
	<-done
	return v, ok, err
}

func TestCompileDeferBootstrapsOnFirstString(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	probe := value.New("probe")
	feed(actx, probe, []value.Value{value.Unknown(), value.Str("prop"), value.Str("prop")})

	// The bootstrapped expression is a literal, not a Var, so its first
	// post-bootstrap read never races against a concurrently-ticking
	// variable manager the way subscribing to a fresh Var mid-stream would.
	parser := &stubParser{expr: ast.Lit{Value: value.Int(42)}}
	c, err := Compile(ctx, ast.Defer{X: ast.Var{Name: probe}}, actx, parser)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 3)
	require.Len(t, got, 3)
	assert.True(t, got[0].IsUnknown())
	n1, _ := got[1].AsInt()
	n2, _ := got[2].AsInt()
	assert.Equal(t, int64(42), n1)
	assert.Equal(t, int64(42), n2)
}

func TestCompileDeferBootstrapErrorOnBadParse(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	probe := value.New("probe")
	feed(actx, probe, []value.Value{value.Str("bad")})

	parser := &stubParser{err: assert.AnError}
	c, err := Compile(ctx, ast.Defer{X: ast.Var{Name: probe}}, actx, parser)
	require.NoError(t, err)

	_, ok, err := callOnce(t, ctx, actx, c)
	assert.False(t, ok)
	var bootstrapErr *BootstrapError
	assert.ErrorAs(t, err, &bootstrapErr)
}

func TestCompileRestrictedDynamicCannotEscapeCaptureSet(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	probe := value.New("probe")
	captured, excluded := value.New("captured"), value.New("excluded")
	feed(actx, probe, []value.Value{value.Str("prop")})
	feed(actx, captured, []value.Value{value.Int(1)})
	feed(actx, excluded, []value.Value{value.Int(2)})

	parser := &stubParser{expr: ast.Var{Name: excluded}}
	c, err := Compile(ctx, ast.RestrictedDynamic{
		X:    ast.Var{Name: probe},
		Vars: []value.VarName{captured},
	}, actx, parser)
	require.NoError(t, err)

	_, _, err = callOnce(t, ctx, actx, c)
	assert.Error(t, err)
}

func TestCompileDynamicReBootstrapsOnChangedProbeString(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	probe := value.New("probe")
	feed(actx, probe, []value.Value{value.Str("a"), value.Str("a"), value.Str("b")})

	parser := mapParser{
		"a": ast.Lit{Value: value.Int(1)},
		"b": ast.Lit{Value: value.Int(2)},
	}
	c, err := Compile(ctx, ast.Dynamic{X: ast.Var{Name: probe}}, actx, parser)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{1, 1, 2}, ints(got))
}

func TestCompileMonitoredAt(t *testing.T) {
	ctx := context.Background()
	actx := async.NewContext()
	x := value.New("x")

	snapshots := []*distribution.Snapshot{
		{NodeLabels: map[string][]value.VarName{"n1": {x}}},
		{NodeLabels: map[string][]value.VarName{"n1": {}}},
	}
	i := 0
	src := fakeSource{next: func(context.Context) (*distribution.Snapshot, bool, error) {
		if i >= len(snapshots) {
			return nil, false, nil
		}
		s := snapshots[i]
		i++
		return s, true, nil
	}}

	distribution.Register(actx, src, []struct {
		Var  value.VarName
		Node string
	}{{Var: x, Node: "n1"}}, 2)

	c, err := Compile(ctx, ast.MonitoredAt{Var: x, Node: "n1"}, actx, nil)
	require.NoError(t, err)

	got := drain(t, ctx, actx, c, 3)
	require.Len(t, got, 2)
	b0, _ := got[0].AsBool()
	b1, _ := got[1].AsBool()
	assert.True(t, b0)
	assert.False(t, b1)
}

type fakeSource struct {
	next func(context.Context) (*distribution.Snapshot, bool, error)
}

func (s fakeSource) Next(ctx context.Context) (*distribution.Snapshot, bool, error) {
	return s.next(ctx)
}
