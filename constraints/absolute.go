package constraints

import "github.com/trustmon/lola/ast"

// ToAbsolute converts a relative-time expression, as written in a
// specification, into the absolute-time form the simplifier operates on:
// every Var becomes an AbsRef pinned to t, and every SIndex is resolved away
// by folding its subexpression to the tick it actually reads (t+offset), or
// to its default subexpression (itself pinned to t) when that tick would be
// negative. This differs structurally from spec.md §4.2's literal
// "SIndex(e.to_absolute(t), t+k)" (which keeps the SIndex node around,
// relying on a separate absolute-expression type to give its Offset field
// a new meaning); folding the node away entirely is semantically identical
// and needs no second expression type in a language where relative and
// absolute forms share one Expr interface.
func ToAbsolute(e ast.Expr, t int) ast.Expr {
	switch n := e.(type) {
	case ast.Lit:
		return n
	case ast.Var:
		return ast.AbsRef{Name: n.Name, Time: t}
	case ast.AbsRef:
		return n
	case ast.BinOp:
		n.Left = ToAbsolute(n.Left, t)
		n.Right = ToAbsolute(n.Right, t)
		return n
	case ast.Not:
		n.X = ToAbsolute(n.X, t)
		return n
	case ast.If:
		n.Cond = ToAbsolute(n.Cond, t)
		n.Then = ToAbsolute(n.Then, t)
		n.Else = ToAbsolute(n.Else, t)
		return n
	case ast.SIndex:
		target := t + n.Offset
		if target < 0 {
			return ToAbsolute(n.Default, t)
		}
		return ToAbsolute(n.X, target)
	case ast.Default:
		n.X = ToAbsolute(n.X, t)
		n.D = ToAbsolute(n.D, t)
		return n
	case ast.Defer:
		return ast.AbsDefer{X: ToAbsolute(n.X, t), Time: t}
	case ast.Update:
		n.E1 = ToAbsolute(n.E1, t)
		n.E2 = ToAbsolute(n.E2, t)
		return n
	case ast.Dynamic:
		// Normalize (spec.Builder.Build) rewrites every Dynamic into a
		// RestrictedDynamic before a specification reaches the runtime, so
		// this case is defensive: treat it as an unrestricted capture set.
		return ast.AbsDynamic{X: ToAbsolute(n.X, t), Time: t}
	case ast.RestrictedDynamic:
		return ast.AbsDynamic{X: ToAbsolute(n.X, t), Time: t, Vars: n.Vars}
	case ast.AbsDefer:
		n.X = ToAbsolute(n.X, n.Time)
		return n
	case ast.AbsDynamic:
		n.X = ToAbsolute(n.X, n.Time)
		return n
	case ast.When:
		n.X = ToAbsolute(n.X, t)
		return n
	case ast.IsDefined:
		n.X = ToAbsolute(n.X, t)
		return n
	case ast.List:
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = ToAbsolute(el, t)
		}
		n.Elems = elems
		return n
	case ast.LIndex:
		n.List = ToAbsolute(n.List, t)
		n.Index = ToAbsolute(n.Index, t)
		return n
	case ast.LAppend:
		n.List = ToAbsolute(n.List, t)
		n.Elem = ToAbsolute(n.Elem, t)
		return n
	case ast.LConcat:
		n.A = ToAbsolute(n.A, t)
		n.B = ToAbsolute(n.B, t)
		return n
	case ast.LHead:
		n.X = ToAbsolute(n.X, t)
		return n
	case ast.LTail:
		n.X = ToAbsolute(n.X, t)
		return n
	case ast.Sin:
		n.X = ToAbsolute(n.X, t)
		return n
	case ast.Cos:
		n.X = ToAbsolute(n.X, t)
		return n
	case ast.Tan:
		n.X = ToAbsolute(n.X, t)
		return n
	case ast.MonitoredAt:
		return n
	default:
		return n
	}
}
