package constraints

import (
	"fmt"
	"math"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/value"
)

// EvalBinOp evaluates op over two fully-resolved literal operands. Unknown
// propagates through every operator: if either operand is Unknown, the
// result is Unknown.
func EvalBinOp(op ast.BinOpKind, l, r value.Value) (value.Value, error) {
	if l.IsUnknown() || r.IsUnknown() {
		return value.Unknown(), nil
	}

	switch op {
	case ast.Eq:
		return value.Bool(l.Equal(r)), nil
	case ast.Neq:
		return value.Bool(!l.Equal(r)), nil
	case ast.And:
		lb, lok := l.AsBool()
		rb, rok := r.AsBool()
		if !lok || !rok {
			return value.Value{}, fmt.Errorf("constraints: && on non-Bool operands")
		}
		return value.Bool(lb && rb), nil
	case ast.Or:
		lb, lok := l.AsBool()
		rb, rok := r.AsBool()
		if !lok || !rok {
			return value.Value{}, fmt.Errorf("constraints: || on non-Bool operands")
		}
		return value.Bool(lb || rb), nil
	case ast.Concat:
		ls, lok := l.AsStr()
		rs, rok := r.AsStr()
		if !lok || !rok {
			return value.Value{}, fmt.Errorf("constraints: ++ on non-Str operands")
		}
		return value.Str(ls + rs), nil
	}

	if li, lok := l.AsInt(); lok {
		ri, rok := r.AsInt()
		if !rok {
			return value.Value{}, fmt.Errorf("constraints: operand kind mismatch")
		}
		return evalIntOp(op, li, ri)
	}
	if lf, lok := l.AsFloat(); lok {
		rf, rok := r.AsFloat()
		if !rok {
			return value.Value{}, fmt.Errorf("constraints: operand kind mismatch")
		}
		return evalFloatOp(op, lf, rf)
	}
	return value.Value{}, fmt.Errorf("constraints: operator %v not defined for %s", op, l.Kind())
}

func evalIntOp(op ast.BinOpKind, l, r int64) (value.Value, error) {
	switch op {
	case ast.Add:
		return value.Int(l + r), nil
	case ast.Sub:
		return value.Int(l - r), nil
	case ast.Mul:
		return value.Int(l * r), nil
	case ast.Div:
		if r == 0 {
			return value.Unknown(), nil
		}
		return value.Int(l / r), nil
	case ast.Mod:
		if r == 0 {
			return value.Unknown(), nil
		}
		return value.Int(l % r), nil
	case ast.Le:
		return value.Bool(l <= r), nil
	case ast.Lt:
		return value.Bool(l < r), nil
	case ast.Ge:
		return value.Bool(l >= r), nil
	case ast.Gt:
		return value.Bool(l > r), nil
	default:
		return value.Value{}, fmt.Errorf("constraints: operator %v not defined for Int", op)
	}
}

func evalFloatOp(op ast.BinOpKind, l, r float32) (value.Value, error) {
	switch op {
	case ast.Add:
		return value.Float(l + r), nil
	case ast.Sub:
		return value.Float(l - r), nil
	case ast.Mul:
		return value.Float(l * r), nil
	case ast.Div:
		return value.Float(l / r), nil
	case ast.Le:
		return value.Bool(l <= r), nil
	case ast.Lt:
		return value.Bool(l < r), nil
	case ast.Ge:
		return value.Bool(l >= r), nil
	case ast.Gt:
		return value.Bool(l > r), nil
	default:
		return value.Value{}, fmt.Errorf("constraints: operator %v not defined for Float", op)
	}
}

// EvalTrig applies the trigonometric lift e names (ast.Sin/Cos/Tan) to f.
func EvalTrig(e ast.Expr, f float32) float32 {
	switch e.(type) {
	case ast.Sin:
		return float32(math.Sin(float64(f)))
	case ast.Cos:
		return float32(math.Cos(float64(f)))
	default:
		return float32(math.Tan(float64(f)))
	}
}
