// Package depgraph tracks the weighted dependency multigraph between
// declared variables: an edge u -> v with weight w means u's equation reads
// v at relative time offset w (w == 0 is the current tick, w < 0 is the
// past, w > 0 is the future). The resolver answers the two structural
// questions the runtime needs before it can safely monitor a specification:
// whether the zero-weight subgraph is acyclic (productivity, spec.md §4.1
// property 9) and whether any cycle carries positive total weight
// (effective monitorability, property 10).
package depgraph

import "github.com/trustmon/lola/value"

// Resolver is the dependency graph a constraint runtime consults while it
// decides how long to retain past values and whether the specification it
// was handed can be monitored at all. Empty and Graph are the two
// implementations: Empty is wired in wherever a caller does not need the
// graph's bookkeeping (e.g. tests of unrelated components), Graph is the
// real multigraph built from a specification's equations.
type Resolver interface {
	// AddDependency records the edges contributed by e, the equation
	// defining on.
	AddDependency(on value.VarName, e Edges)

	// RemoveDependency removes the edges previously contributed by on's
	// prior equation, ahead of replacing it.
	RemoveDependency(on value.VarName, e Edges)

	// LongestPastWindow returns the largest negative offset (as a positive
	// tick count) any declared variable needs v held for. Graph answers 0
	// if nothing reads v's past; Empty answers math.MaxInt for every v.
	LongestPastWindow(v value.VarName) int

	// LongestPastWindows returns LongestPastWindow for every variable with
	// at least one incoming past-reading edge.
	LongestPastWindows() map[value.VarName]int

	// IsProductive reports whether the zero-weight subgraph is acyclic:
	// every output can be computed from already-available values without
	// waiting on itself within the same tick.
	IsProductive() bool

	// IsEffectivelyMonitorable reports whether no cycle in the graph has
	// positive total weight: a positive-weight cycle would require an
	// unbounded future lookahead to resolve.
	IsEffectivelyMonitorable() bool

	// DotGraph renders the graph in Graphviz dot format for diagnostics.
	DotGraph() string
}

// Edges is the set of dependency edges one variable's equation contributes,
// keyed by the variable it reads and the relative time offset it reads it
// at. BuildEdges(expr) computes this set by walking an ast.Expr.
type Edges map[edgeKey]struct{}

type edgeKey struct {
	to     value.VarName
	weight int
}

// Add records a dependency on v at the given relative time offset.
func (e Edges) Add(v value.VarName, weight int) {
	e[edgeKey{to: v, weight: weight}] = struct{}{}
}
