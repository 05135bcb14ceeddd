package ast

import "github.com/trustmon/lola/value"

// Normalize rewrites every Dynamic node in e into a RestrictedDynamic whose
// capture set is every declared variable except self, so the expression
// bootstrapped at run time may read any other declared stream. This is the fixed-point rewrite spec.md §3/§9
// requires at specification-load time: it prevents a zero-weight self-cycle
// from appearing through a dynamic expression that would otherwise be free
// to reference the very variable whose equation it is bootstrapped from.
//
// declared is the universe of legal free variables (InputVars ∪ OutputVars);
// self is the variable whose equation e belongs to.
func Normalize(e Expr, self value.VarName, declared []value.VarName) Expr {
	allowed := make(map[value.VarName]bool, len(declared))
	for _, v := range declared {
		if v != self {
			allowed[v] = true
		}
	}

	return Rewrite(e, func(n Expr) Expr {
		dyn, ok := n.(Dynamic)
		if !ok {
			return n
		}

		var captured []value.VarName
		for _, v := range declared {
			if allowed[v] {
				captured = append(captured, v)
			}
		}
		return RestrictedDynamic{X: dyn.X, Vars: captured}
	})
}
