package depgraph

import (
	"github.com/trustmon/lola/ast"
)

// BuildEdges walks e and returns the edges it contributes: one edge per
// Var/MonitoredAt read, weighted by the relative time offset accumulated
// through any enclosing SIndex nodes. Defer, Dynamic and RestrictedDynamic
// bootstrap their bodies in a fresh subcontext evaluated at the current
// tick, so the offset resets to 0 when walking into them regardless of the
// offset accumulated so far.
func BuildEdges(e ast.Expr) Edges {
	edges := make(Edges)
	walk(e, 0, edges)
	return edges
}

func walk(e ast.Expr, offset int, edges Edges) {
	switch n := e.(type) {
	case ast.Lit:
	case ast.Var:
		edges.Add(n.Name, offset)
	case ast.MonitoredAt:
		edges.Add(n.Var, offset)
	case ast.BinOp:
		walk(n.Left, offset, edges)
		walk(n.Right, offset, edges)
	case ast.Not:
		walk(n.X, offset, edges)
	case ast.If:
		walk(n.Cond, offset, edges)
		walk(n.Then, offset, edges)
		walk(n.Else, offset, edges)
	case ast.SIndex:
		walk(n.X, offset+n.Offset, edges)
		walk(n.Default, offset, edges)
	case ast.Default:
		walk(n.X, offset, edges)
		walk(n.D, offset, edges)
	case ast.Defer:
		walk(n.X, 0, edges)
	case ast.Update:
		walk(n.E1, offset, edges)
		walk(n.E2, offset, edges)
	case ast.Dynamic:
		walk(n.X, 0, edges)
	case ast.RestrictedDynamic:
		walk(n.X, 0, edges)
	case ast.When:
		walk(n.X, offset, edges)
	case ast.IsDefined:
		walk(n.X, offset, edges)
	case ast.List:
		for _, el := range n.Elems {
			walk(el, offset, edges)
		}
	case ast.LIndex:
		walk(n.List, offset, edges)
		walk(n.Index, offset, edges)
	case ast.LAppend:
		walk(n.List, offset, edges)
		walk(n.Elem, offset, edges)
	case ast.LConcat:
		walk(n.A, offset, edges)
		walk(n.B, offset, edges)
	case ast.LHead:
		walk(n.X, offset, edges)
	case ast.LTail:
		walk(n.X, offset, edges)
	case ast.Sin:
		walk(n.X, offset, edges)
	case ast.Cos:
		walk(n.X, offset, edges)
	case ast.Tan:
		walk(n.X, offset, edges)
	}
}
