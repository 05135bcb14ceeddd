// Package semantics compiles an ast.Expr into a Combinator: a function
// pulling one tick's worth of value at a time, synchronously composing
// whatever child combinators it needs. Leaf Var and MonitoredAt combinators
// are the only ones that actually touch a channel, subscribing to the owning
// runtime/async.Context; every other node is a pure, synchronous
// transformation over its children's per-tick results, evaluated once per
// call, the way a single-record processing function evaluates one record
// at a time.
package semantics

import (
	"context"
	"fmt"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/constraints"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// Combinator produces the next value of a compiled stream, or ok == false
// once the stream is exhausted.
type Combinator func(ctx context.Context) (v value.Value, ok bool, err error)

// Parser mirrors constraints.Parser: it turns the string a defer/dynamic
// probe yields into the expression it bootstraps.
type Parser = constraints.Parser

// Compile builds a Combinator for e. ctx bounds the lifetime of every Var
// subscription Compile creates; actx is the context whose variable managers
// back every Var leaf. Compiling the equation for an output is typically
// followed by registering the resulting Combinator as that output's own
// variable manager (see Register) so further equations can subscribe to it
// in turn.
func Compile(ctx context.Context, e ast.Expr, actx *async.Context, parser Parser) (Combinator, error) {
	switch n := e.(type) {
	case ast.Lit:
		v := n.Value
		return func(context.Context) (value.Value, bool, error) { return v, true, nil }, nil

	case ast.Var:
		return compileVar(ctx, n.Name, actx)

	case ast.BinOp:
		return compileBinOp(ctx, n, actx, parser)

	case ast.Not:
		x, err := Compile(ctx, n.X, actx, parser)
		if err != nil {
			return nil, err
		}
		return func(callCtx context.Context) (value.Value, bool, error) {
			xv, ok, err := x(callCtx)
			if err != nil || !ok {
				return value.Unknown(), ok, err
			}
			if xv.IsUnknown() {
				return value.Unknown(), true, nil
			}
			b, _ := xv.AsBool()
			return value.Bool(!b), true, nil
		}, nil

	case ast.If:
		return compileIf(ctx, n, actx, parser)

	case ast.SIndex:
		return compileSIndex(ctx, n, actx, parser)

	case ast.Default:
		x, err := Compile(ctx, n.X, actx, parser)
		if err != nil {
			return nil, err
		}
		d, err := Compile(ctx, n.D, actx, parser)
		if err != nil {
			return nil, err
		}
		return func(callCtx context.Context) (value.Value, bool, error) {
			xv, ok, err := x(callCtx)
			if err != nil || !ok {
				return value.Unknown(), ok, err
			}
			if !xv.IsUnknown() {
				return xv, true, nil
			}
			return d(callCtx)
		}, nil

	case ast.Defer:
		return compileDefer(ctx, n.X, nil, actx, parser, true)

	case ast.Update:
		e1, err := Compile(ctx, n.E1, actx, parser)
		if err != nil {
			return nil, err
		}
		e2, err := Compile(ctx, n.E2, actx, parser)
		if err != nil {
			return nil, err
		}
		return func(callCtx context.Context) (value.Value, bool, error) {
			v2, ok, err := e2(callCtx)
			if err != nil || !ok {
				return value.Unknown(), ok, err
			}
			// e1 is pulled every tick so its value stays aligned with the tick
			// count even on ticks where e2's value is the one returned.
			v1, ok, err := e1(callCtx)
			if err != nil || !ok {
				return value.Unknown(), ok, err
			}
			if !v2.IsUnknown() {
				return v2, true, nil
			}
			return v1, true, nil
		}, nil

	case ast.RestrictedDynamic:
		return compileDefer(ctx, n.X, n.Vars, actx, parser, false)

	case ast.Dynamic:
		return compileDefer(ctx, n.X, nil, actx, parser, false)

	case ast.When:
		x, err := Compile(ctx, n.X, actx, parser)
		if err != nil {
			return nil, err
		}
		latched := false
		return func(callCtx context.Context) (value.Value, bool, error) {
			if latched {
				xv, ok, err := x(callCtx)
				if err != nil || !ok {
					return value.Unknown(), ok, err
				}
				_ = xv
				return value.Bool(true), true, nil
			}
			xv, ok, err := x(callCtx)
			if err != nil || !ok {
				return value.Unknown(), ok, err
			}
			if !xv.IsUnknown() {
				latched = true
				return value.Bool(true), true, nil
			}
			return value.Bool(false), true, nil
		}, nil

	case ast.IsDefined:
		x, err := Compile(ctx, n.X, actx, parser)
		if err != nil {
			return nil, err
		}
		return func(callCtx context.Context) (value.Value, bool, error) {
			xv, ok, err := x(callCtx)
			if err != nil || !ok {
				return value.Unknown(), ok, err
			}
			return value.Bool(!xv.IsUnknown()), true, nil
		}, nil

	case ast.List:
		return compileList(ctx, n, actx, parser)

	case ast.LIndex:
		return compileLIndex(ctx, n, actx, parser)

	case ast.LAppend:
		return compileLAppend(ctx, n, actx, parser)

	case ast.LConcat:
		return compileLConcat(ctx, n, actx, parser)

	case ast.LHead:
		return compileListUnary(ctx, n.X, actx, parser, func(items []value.Value) value.Value {
			if len(items) == 0 {
				return value.Unknown()
			}
			return items[0]
		})

	case ast.LTail:
		return compileListUnary(ctx, n.X, actx, parser, func(items []value.Value) value.Value {
			if len(items) == 0 {
				return value.Unknown()
			}
			return value.List(items[1:])
		})

	case ast.Sin, ast.Cos, ast.Tan:
		return compileTrig(ctx, n, actx, parser)

	case ast.MonitoredAt:
		return compileMonitoredAt(ctx, n, actx)

	default:
		return nil, fmt.Errorf("semantics: unsupported node %T", e)
	}
}

func compileVar(ctx context.Context, name value.VarName, actx *async.Context) (Combinator, error) {
	ch, err := actx.Subscribe(ctx, name, ctx)
	if err != nil {
		return nil, fmt.Errorf("semantics: compiling var %s: %w", name, err)
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		select {
		case v, ok := <-ch:
			if !ok {
				return value.Unknown(), false, nil
			}
			return v, true, nil
		case <-callCtx.Done():
			return value.Unknown(), false, callCtx.Err()
		}
	}, nil
}

func compileBinOp(ctx context.Context, n ast.BinOp, actx *async.Context, parser Parser) (Combinator, error) {
	left, err := Compile(ctx, n.Left, actx, parser)
	if err != nil {
		return nil, err
	}
	right, err := Compile(ctx, n.Right, actx, parser)
	if err != nil {
		return nil, err
	}
	op := n.Op
	return func(callCtx context.Context) (value.Value, bool, error) {
		lv, ok, err := left(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		rv, ok, err := right(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		v, err := constraints.EvalBinOp(op, lv, rv)
		if err != nil {
			return value.Unknown(), true, err
		}
		return v, true, nil
	}, nil
}

func compileIf(ctx context.Context, n ast.If, actx *async.Context, parser Parser) (Combinator, error) {
	cond, err := Compile(ctx, n.Cond, actx, parser)
	if err != nil {
		return nil, err
	}
	then, err := Compile(ctx, n.Then, actx, parser)
	if err != nil {
		return nil, err
	}
	els, err := Compile(ctx, n.Else, actx, parser)
	if err != nil {
		return nil, err
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		cv, ok, err := cond(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		// Both branches are pulled every tick regardless of which one is
		// selected, matching spec.md §4.6's "x and y are both pulled every
		// tick" note for if_stm.
		tv, tok, terr := then(callCtx)
		ev, eok, eerr := els(callCtx)
		if cv.IsUnknown() {
			return value.Unknown(), tok && eok, firstErr(terr, eerr)
		}
		b, _ := cv.AsBool()
		if b {
			return tv, tok, terr
		}
		return ev, eok, eerr
	}, nil
}

func firstErr(a, b error) error {
	if a != nil {
		return a
	}
	return b
}
