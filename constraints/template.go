package constraints

import (
	"fmt"

	"github.com/trustmon/lola/ast"
)

// TemplateSimplify rewrites an as-written (relative-time) output equation
// the way Runtime.Step's pre-pass over output_exprs does, before any
// per-tick absolute instance is derived from it. Ordinary variable and
// index references are left untouched here — those are resolved fresh
// every tick by Simplify/ToAbsolute instead — but a handful of node kinds
// can change shape once a value becomes known, most importantly Defer:
// once its probe yields a string, the node is permanently replaced by
// whatever expression that string parses to, so later ticks read the
// parsed replacement rather than re-probing a source that may already
// have reverted to Unknown.
func TemplateSimplify(store *Store, parser Parser, e ast.Expr, t int) (ast.Expr, error) {
	switch n := e.(type) {
	case ast.Lit:
		return n, nil

	case ast.Var:
		return n, nil

	case ast.AbsRef:
		return n, nil

	case ast.BinOp:
		left, err := TemplateSimplify(store, parser, n.Left, t)
		if err != nil {
			return nil, err
		}
		right, err := TemplateSimplify(store, parser, n.Right, t)
		if err != nil {
			return nil, err
		}
		n.Left, n.Right = left, right

		if ll, lok := left.(ast.Lit); lok {
			if rl, rok := right.(ast.Lit); rok {
				v, err := EvalBinOp(n.Op, ll.Value, rl.Value)
				if err != nil {
					return nil, err
				}
				return ast.Lit{Value: v}, nil
			}
		}
		return n, nil

	case ast.If:
		cond, err := TemplateSimplify(store, parser, n.Cond, t)
		if err != nil {
			return nil, err
		}
		if lit, ok := cond.(ast.Lit); ok && !lit.Value.IsUnknown() {
			b, _ := lit.Value.AsBool()
			if b {
				return TemplateSimplify(store, parser, n.Then, t)
			}
			return TemplateSimplify(store, parser, n.Else, t)
		}
		n.Cond = cond
		return n, nil

	case ast.Default:
		x, err := TemplateSimplify(store, parser, n.X, t)
		if err != nil {
			return nil, err
		}
		if lit, ok := x.(ast.Lit); ok {
			if !lit.Value.IsUnknown() {
				return lit, nil
			}
			return TemplateSimplify(store, parser, n.D, t)
		}
		n.X = x
		return n, nil

	case ast.SIndex:
		// A zero offset is just the subexpression itself; a nonzero offset
		// reaches into a different tick this pass has no business touching,
		// so it is left wrapped for the per-tick absolute pass to resolve.
		if n.Offset == 0 {
			return TemplateSimplify(store, parser, n.X, t)
		}
		x, err := TemplateSimplify(store, parser, n.X, t)
		if err != nil {
			return nil, err
		}
		n.X = x
		return n, nil

	case ast.Defer:
		return bootstrapDeferTemplate(store, parser, n.X, t)

	default:
		return n, nil
	}
}

// bootstrapDeferTemplate probes x for a bootstrap string the same three
// ways the original runtime's Defer arm does: if the probe itself
// simplifies to a literal, read it directly; if it simplifies to a bare
// variable reference, look that variable up in the store at t; otherwise,
// as a last resort, pin the probe to t and run it through the full
// absolute-time simplifier. Whichever way resolves, the string is parsed
// and the Defer node is replaced by the parsed expression, recursively
// template-simplified once more so nested Defers bootstrap in one pass.
func bootstrapDeferTemplate(store *Store, parser Parser, x ast.Expr, t int) (ast.Expr, error) {
	probe, err := TemplateSimplify(store, parser, x, t)
	if err != nil {
		return nil, err
	}

	var s string
	switch p := probe.(type) {
	case ast.Lit:
		if p.Value.IsUnknown() {
			return ast.Defer{X: probe}, nil
		}
		str, ok := p.Value.AsStr()
		if !ok {
			return nil, &BootstrapError{Source: p.Value.String(), Err: fmt.Errorf("bootstrap probe is not a string")}
		}
		s = str

	case ast.Var:
		v, ok := store.Lookup(p.Name, t)
		if !ok || v.IsUnknown() {
			return ast.Defer{X: probe}, nil
		}
		str, ok := v.AsStr()
		if !ok {
			return nil, &BootstrapError{Source: v.String(), Err: fmt.Errorf("bootstrap probe is not a string")}
		}
		s = str

	default:
		resolved, err := Simplify(store, parser, ToAbsolute(probe, t))
		if err != nil {
			return nil, err
		}
		lit, ok := resolved.(ast.Lit)
		if !ok || lit.Value.IsUnknown() {
			return ast.Defer{X: probe}, nil
		}
		str, ok := lit.Value.AsStr()
		if !ok {
			return nil, &BootstrapError{Source: lit.Value.String(), Err: fmt.Errorf("bootstrap probe is not a string")}
		}
		s = str
	}

	parsed, err := parser.Parse(s)
	if err != nil {
		return nil, &BootstrapError{Source: s, Err: err}
	}
	return TemplateSimplify(store, parser, parsed, t)
}
