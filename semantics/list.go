package semantics

import (
	"context"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

func compileList(ctx context.Context, n ast.List, actx *async.Context, parser Parser) (Combinator, error) {
	elems := make([]Combinator, len(n.Elems))
	for i, el := range n.Elems {
		c, err := Compile(ctx, el, actx, parser)
		if err != nil {
			return nil, err
		}
		elems[i] = c
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		vals := make([]value.Value, len(elems))
		for i, c := range elems {
			v, ok, err := c(callCtx)
			if err != nil || !ok {
				return value.Unknown(), ok, err
			}
			vals[i] = v
		}
		return value.List(vals), true, nil
	}, nil
}

func compileLIndex(ctx context.Context, n ast.LIndex, actx *async.Context, parser Parser) (Combinator, error) {
	list, err := Compile(ctx, n.List, actx, parser)
	if err != nil {
		return nil, err
	}
	idx, err := Compile(ctx, n.Index, actx, parser)
	if err != nil {
		return nil, err
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		lv, ok, err := list(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		iv, ok, err := idx(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		items, isList := lv.AsList()
		i, isInt := iv.AsInt()
		if !isList || !isInt || i < 0 || int(i) >= len(items) {
			return value.Unknown(), true, nil
		}
		return items[i], true, nil
	}, nil
}

func compileLAppend(ctx context.Context, n ast.LAppend, actx *async.Context, parser Parser) (Combinator, error) {
	list, err := Compile(ctx, n.List, actx, parser)
	if err != nil {
		return nil, err
	}
	elem, err := Compile(ctx, n.Elem, actx, parser)
	if err != nil {
		return nil, err
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		lv, ok, err := list(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		ev, ok, err := elem(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		items, _ := lv.AsList()
		out := append(append([]value.Value(nil), items...), ev)
		return value.List(out), true, nil
	}, nil
}

func compileLConcat(ctx context.Context, n ast.LConcat, actx *async.Context, parser Parser) (Combinator, error) {
	a, err := Compile(ctx, n.A, actx, parser)
	if err != nil {
		return nil, err
	}
	b, err := Compile(ctx, n.B, actx, parser)
	if err != nil {
		return nil, err
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		av, ok, err := a(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		bv, ok, err := b(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		ai, _ := av.AsList()
		bi, _ := bv.AsList()
		out := append(append([]value.Value(nil), ai...), bi...)
		return value.List(out), true, nil
	}, nil
}

func compileListUnary(ctx context.Context, x ast.Expr, actx *async.Context, parser Parser, fn func([]value.Value) value.Value) (Combinator, error) {
	c, err := Compile(ctx, x, actx, parser)
	if err != nil {
		return nil, err
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		v, ok, err := c(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		items, _ := v.AsList()
		return fn(items), true, nil
	}, nil
}
