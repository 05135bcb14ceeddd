package constraints

import (
	"fmt"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/value"
)

// Simplify performs one small-step rewrite pass over e, resolving whatever
// AbsRefs the store can already answer and folding fully-literal subtrees.
// Calling it repeatedly to a fixed point (spec.md §4.2/§4.3) drains an
// unresolved expression down to a single ast.Lit once every value it
// transitively depends on becomes available. A Defer or Dynamic bootstrap
// replaces a node with the parsed expression, which may be larger than the
// input. Errors are a BootstrapError from a failed bootstrap or an
// evaluation error from folding a literal operator or trig node.
func Simplify(store *Store, parser Parser, e ast.Expr) (ast.Expr, error) {
	switch n := e.(type) {
	case ast.Lit:
		return n, nil

	case ast.AbsRef:
		if v, ok := store.Lookup(n.Name, n.Time); ok {
			return ast.Lit{Value: v}, nil
		}
		return n, nil

	case ast.Not:
		x, err := Simplify(store, parser, n.X)
		if err != nil {
			return nil, err
		}
		n.X = x
		if lit, ok := x.(ast.Lit); ok {
			b, _ := lit.Value.AsBool()
			return ast.Lit{Value: value.Bool(!b)}, nil
		}
		return n, nil

	case ast.BinOp:
		left, err := Simplify(store, parser, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Simplify(store, parser, n.Right)
		if err != nil {
			return nil, err
		}
		n.Left, n.Right = left, right

		ll, lok := left.(ast.Lit)
		rl, rok := right.(ast.Lit)
		if shortCircuit, ok := tryShortCircuit(n.Op, left, right); ok {
			return shortCircuit, nil
		}
		if lok && rok {
			v, err := EvalBinOp(n.Op, ll.Value, rl.Value)
			if err != nil {
				return nil, err
			}
			return ast.Lit{Value: v}, nil
		}
		return n, nil

	case ast.If:
		cond, err := Simplify(store, parser, n.Cond)
		if err != nil {
			return nil, err
		}
		n.Cond = cond
		if lit, ok := cond.(ast.Lit); ok {
			if lit.Value.IsUnknown() {
				return ast.Lit{Value: value.Unknown()}, nil
			}
			b, _ := lit.Value.AsBool()
			if b {
				return Simplify(store, parser, n.Then)
			}
			return Simplify(store, parser, n.Else)
		}
		return n, nil

	case ast.Default:
		x, err := Simplify(store, parser, n.X)
		if err != nil {
			return nil, err
		}
		if lit, ok := x.(ast.Lit); ok {
			if !lit.Value.IsUnknown() {
				return lit, nil
			}
			return Simplify(store, parser, n.D)
		}
		n.X = x
		return n, nil

	case ast.Update:
		e2, err := Simplify(store, parser, n.E2)
		if err != nil {
			return nil, err
		}
		if lit, ok := e2.(ast.Lit); ok && !lit.Value.IsUnknown() {
			return lit, nil
		}
		e1, err := Simplify(store, parser, n.E1)
		if err != nil {
			return nil, err
		}
		if lit2, ok := e2.(ast.Lit); ok && lit2.Value.IsUnknown() {
			return e1, nil
		}
		n.E1, n.E2 = e1, e2
		return n, nil

	case ast.When:
		x, err := Simplify(store, parser, n.X)
		if err != nil {
			return nil, err
		}
		n.X = x
		return n, nil

	case ast.IsDefined:
		x, err := Simplify(store, parser, n.X)
		if err != nil {
			return nil, err
		}
		if lit, ok := x.(ast.Lit); ok {
			return ast.Lit{Value: value.Bool(!lit.Value.IsUnknown())}, nil
		}
		n.X = x
		return n, nil

	case ast.AbsDefer:
		x, err := Simplify(store, parser, n.X)
		if err != nil {
			return nil, err
		}
		lit, ok := x.(ast.Lit)
		if !ok {
			n.X = x
			return n, nil
		}
		if lit.Value.IsUnknown() {
			return ast.Lit{Value: value.Unknown()}, nil
		}
		s, ok := lit.Value.AsStr()
		if !ok {
			return nil, &BootstrapError{Source: lit.Value.String(), Err: fmt.Errorf("bootstrap probe is not a string")}
		}
		parsed, err := parser.Parse(s)
		if err != nil {
			return nil, &BootstrapError{Source: s, Err: err}
		}
		return Simplify(store, parser, ToAbsolute(parsed, n.Time))

	case ast.AbsDynamic:
		x, err := Simplify(store, parser, n.X)
		if err != nil {
			return nil, err
		}
		lit, ok := x.(ast.Lit)
		if !ok {
			n.X = x
			return n, nil
		}
		if lit.Value.IsUnknown() {
			return ast.Lit{Value: value.Unknown()}, nil
		}
		s, ok := lit.Value.AsStr()
		if !ok {
			return nil, &BootstrapError{Source: lit.Value.String(), Err: fmt.Errorf("bootstrap probe is not a string")}
		}
		parsed, err := parser.Parse(s)
		if err != nil {
			return nil, &BootstrapError{Source: s, Err: err}
		}
		return Simplify(store, parser, ToAbsolute(parsed, n.Time))

	case ast.List:
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			se, err := Simplify(store, parser, el)
			if err != nil {
				return nil, err
			}
			elems[i] = se
		}
		n.Elems = elems
		if lits, ok := allLits(elems); ok {
			vals := make([]value.Value, len(lits))
			for i, l := range lits {
				vals[i] = l.Value
			}
			return ast.Lit{Value: value.List(vals)}, nil
		}
		return n, nil

	case ast.LIndex:
		list, err := Simplify(store, parser, n.List)
		if err != nil {
			return nil, err
		}
		idx, err := Simplify(store, parser, n.Index)
		if err != nil {
			return nil, err
		}
		n.List, n.Index = list, idx
		ll, lok := list.(ast.Lit)
		il, iok := idx.(ast.Lit)
		if lok && iok {
			items, _ := ll.Value.AsList()
			i, _ := il.Value.AsInt()
			if i < 0 || int(i) >= len(items) {
				return ast.Lit{Value: value.Unknown()}, nil
			}
			return ast.Lit{Value: items[i]}, nil
		}
		return n, nil

	case ast.LAppend:
		list, err := Simplify(store, parser, n.List)
		if err != nil {
			return nil, err
		}
		elem, err := Simplify(store, parser, n.Elem)
		if err != nil {
			return nil, err
		}
		n.List, n.Elem = list, elem
		ll, lok := list.(ast.Lit)
		el, eok := elem.(ast.Lit)
		if lok && eok {
			items, _ := ll.Value.AsList()
			out := append(append([]value.Value(nil), items...), el.Value)
			return ast.Lit{Value: value.List(out)}, nil
		}
		return n, nil

	case ast.LConcat:
		a, err := Simplify(store, parser, n.A)
		if err != nil {
			return nil, err
		}
		b, err := Simplify(store, parser, n.B)
		if err != nil {
			return nil, err
		}
		n.A, n.B = a, b
		al, aok := a.(ast.Lit)
		bl, bok := b.(ast.Lit)
		if aok && bok {
			ai, _ := al.Value.AsList()
			bi, _ := bl.Value.AsList()
			out := append(append([]value.Value(nil), ai...), bi...)
			return ast.Lit{Value: value.List(out)}, nil
		}
		return n, nil

	case ast.LHead:
		x, err := Simplify(store, parser, n.X)
		if err != nil {
			return nil, err
		}
		n.X = x
		if lit, ok := x.(ast.Lit); ok {
			items, _ := lit.Value.AsList()
			if len(items) == 0 {
				return ast.Lit{Value: value.Unknown()}, nil
			}
			return ast.Lit{Value: items[0]}, nil
		}
		return n, nil

	case ast.LTail:
		x, err := Simplify(store, parser, n.X)
		if err != nil {
			return nil, err
		}
		n.X = x
		if lit, ok := x.(ast.Lit); ok {
			items, _ := lit.Value.AsList()
			if len(items) == 0 {
				return ast.Lit{Value: value.Unknown()}, nil
			}
			return ast.Lit{Value: value.List(items[1:])}, nil
		}
		return n, nil

	case ast.Sin, ast.Cos, ast.Tan:
		return simplifyTrig(store, parser, n)

	case ast.MonitoredAt:
		return n, nil

	default:
		return n, nil
	}
}

func simplifyTrig(store *Store, parser Parser, e ast.Expr) (ast.Expr, error) {
	var x ast.Expr
	switch n := e.(type) {
	case ast.Sin:
		x = n.X
	case ast.Cos:
		x = n.X
	case ast.Tan:
		x = n.X
	}
	sx, err := Simplify(store, parser, x)
	if err != nil {
		return nil, err
	}
	lit, ok := sx.(ast.Lit)
	if !ok {
		switch e.(type) {
		case ast.Sin:
			return ast.Sin{X: sx}, nil
		case ast.Cos:
			return ast.Cos{X: sx}, nil
		default:
			return ast.Tan{X: sx}, nil
		}
	}
	f, fok := lit.Value.AsFloat()
	if !fok {
		return nil, fmt.Errorf("constraints: trig operand is not a Float")
	}
	return ast.Lit{Value: value.Float(EvalTrig(e, f))}, nil
}

func allLits(es []ast.Expr) ([]ast.Lit, bool) {
	out := make([]ast.Lit, len(es))
	for i, e := range es {
		lit, ok := e.(ast.Lit)
		if !ok {
			return nil, false
		}
		out[i] = lit
	}
	return out, true
}

// tryShortCircuit resolves And/Or as soon as one operand's literal value
// makes the other irrelevant, without requiring both sides to be literal.
func tryShortCircuit(op ast.BinOpKind, left, right ast.Expr) (ast.Expr, bool) {
	if op != ast.And && op != ast.Or {
		return nil, false
	}
	for _, side := range []ast.Expr{left, right} {
		lit, ok := side.(ast.Lit)
		if !ok {
			continue
		}
		b, ok := lit.Value.AsBool()
		if !ok {
			continue
		}
		if op == ast.And && !b {
			return ast.Lit{Value: value.Bool(false)}, true
		}
		if op == ast.Or && b {
			return ast.Lit{Value: value.Bool(true)}, true
		}
	}
	return nil, false
}
