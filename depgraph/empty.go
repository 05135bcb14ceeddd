package depgraph

import (
	"math"

	"github.com/trustmon/lola/value"
)

// Empty is a Resolver that tracks nothing: every query answers as
// permissively as possible. It is wired in wherever a caller needs the
// Resolver interface but genuinely has no dependency structure to track,
// e.g. a bare constraint store under test in isolation.
type Empty struct{}

func (Empty) AddDependency(value.VarName, Edges)    {}
func (Empty) RemoveDependency(value.VarName, Edges) {}

// LongestPastWindow always answers MAX: with no tracked structure at all,
// Empty cannot say any variable's retention window is safe to shrink, so
// every query is satisfied trivially by retaining forever.
func (Empty) LongestPastWindow(value.VarName) int { return math.MaxInt }

// LongestPastWindows reports no variable at all, which Store.Cleanup reads
// as "nothing to prune" — consistent with the per-variable answer above
// being MAX for every variable, never just the ones this map would name.
func (Empty) LongestPastWindows() map[value.VarName]int {
	return map[value.VarName]int{}
}
func (Empty) IsProductive() bool             { return true }
func (Empty) IsEffectivelyMonitorable() bool { return true }
func (Empty) DotGraph() string               { return "digraph DependencyGraph {\n}\n" }
