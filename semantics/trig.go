package semantics

import (
	"context"
	"fmt"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/constraints"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

func compileTrig(ctx context.Context, e ast.Expr, actx *async.Context, parser Parser) (Combinator, error) {
	var x ast.Expr
	switch n := e.(type) {
	case ast.Sin:
		x = n.X
	case ast.Cos:
		x = n.X
	case ast.Tan:
		x = n.X
	default:
		return nil, fmt.Errorf("semantics: compileTrig called with %T", e)
	}

	c, err := Compile(ctx, x, actx, parser)
	if err != nil {
		return nil, err
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		v, ok, err := c(callCtx)
		if err != nil || !ok {
			return value.Unknown(), ok, err
		}
		if v.IsUnknown() {
			return value.Unknown(), true, nil
		}
		f, isFloat := v.AsFloat()
		if !isFloat {
			return value.Unknown(), true, fmt.Errorf("semantics: trig operand is not a Float")
		}
		return value.Float(constraints.EvalTrig(e, f)), true, nil
	}, nil
}
