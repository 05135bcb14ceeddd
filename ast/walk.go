package ast

import "github.com/trustmon/lola/value"

// children returns the immediate subexpressions of e, in evaluation order.
func children(e Expr) []Expr {
	switch n := e.(type) {
	case Lit:
		return nil
	case Var:
		return nil
	case BinOp:
		return []Expr{n.Left, n.Right}
	case Not:
		return []Expr{n.X}
	case If:
		return []Expr{n.Cond, n.Then, n.Else}
	case SIndex:
		return []Expr{n.X, n.Default}
	case Default:
		return []Expr{n.X, n.D}
	case Defer:
		return []Expr{n.X}
	case Update:
		return []Expr{n.E1, n.E2}
	case Dynamic:
		return []Expr{n.X}
	case RestrictedDynamic:
		return []Expr{n.X}
	case When:
		return []Expr{n.X}
	case IsDefined:
		return []Expr{n.X}
	case List:
		return n.Elems
	case LIndex:
		return []Expr{n.List, n.Index}
	case LAppend:
		return []Expr{n.List, n.Elem}
	case LConcat:
		return []Expr{n.A, n.B}
	case LHead:
		return []Expr{n.X}
	case LTail:
		return []Expr{n.X}
	case Sin:
		return []Expr{n.X}
	case Cos:
		return []Expr{n.X}
	case Tan:
		return []Expr{n.X}
	case MonitoredAt:
		return nil
	case AbsRef:
		return nil
	case AbsDefer:
		return []Expr{n.X}
	case AbsDynamic:
		return []Expr{n.X}
	default:
		return nil
	}
}

// Walk calls visit for e and every subexpression, depth first, pre-order.
func Walk(e Expr, visit func(Expr)) {
	visit(e)
	for _, c := range children(e) {
		Walk(c, visit)
	}
}

// FreeVars collects every VarName read anywhere in e, including within
// MonitoredAt (which reads a stream's assignment, not its value, but still
// depends on its declaration existing) and the bootstrap-probe expression
// of Defer/Dynamic/RestrictedDynamic. Duplicates are removed but order of
// first occurrence is preserved.
func FreeVars(e Expr) []value.VarName {
	seen := make(map[value.VarName]bool)
	var out []value.VarName
	Walk(e, func(n Expr) {
		var name value.VarName
		switch v := n.(type) {
		case Var:
			name = v.Name
		case MonitoredAt:
			name = v.Var
		case AbsRef:
			name = v.Name
		default:
			return
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	})
	return out
}

// Rewrite applies fn bottom-up: every subexpression is rewritten first, then
// fn is applied to the node with its (already rewritten) children. fn may
// return its argument unchanged.
func Rewrite(e Expr, fn func(Expr) Expr) Expr {
	switch n := e.(type) {
	case BinOp:
		n.Left = Rewrite(n.Left, fn)
		n.Right = Rewrite(n.Right, fn)
		return fn(n)
	case Not:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case If:
		n.Cond = Rewrite(n.Cond, fn)
		n.Then = Rewrite(n.Then, fn)
		n.Else = Rewrite(n.Else, fn)
		return fn(n)
	case SIndex:
		n.X = Rewrite(n.X, fn)
		n.Default = Rewrite(n.Default, fn)
		return fn(n)
	case Default:
		n.X = Rewrite(n.X, fn)
		n.D = Rewrite(n.D, fn)
		return fn(n)
	case Defer:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case Update:
		n.E1 = Rewrite(n.E1, fn)
		n.E2 = Rewrite(n.E2, fn)
		return fn(n)
	case Dynamic:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case RestrictedDynamic:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case When:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case IsDefined:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case List:
		elems := make([]Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = Rewrite(el, fn)
		}
		n.Elems = elems
		return fn(n)
	case LIndex:
		n.List = Rewrite(n.List, fn)
		n.Index = Rewrite(n.Index, fn)
		return fn(n)
	case LAppend:
		n.List = Rewrite(n.List, fn)
		n.Elem = Rewrite(n.Elem, fn)
		return fn(n)
	case LConcat:
		n.A = Rewrite(n.A, fn)
		n.B = Rewrite(n.B, fn)
		return fn(n)
	case LHead:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case LTail:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case Sin:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case Cos:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	case Tan:
		n.X = Rewrite(n.X, fn)
		return fn(n)
	default:
		return fn(e)
	}
}
