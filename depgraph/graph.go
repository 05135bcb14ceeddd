package depgraph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/value"
)

// edge is one directed, weighted arc of the multigraph: from depends on to
// at the given relative time offset.
type edge struct {
	from, to value.VarName
	weight   int
}

// Graph is the real dependency multigraph, built incrementally as a
// specification's equations are added, removed or replaced. It is safe for
// concurrent use: the async runtime's variable managers consult it from
// multiple goroutines while ticking.
type Graph struct {
	mu    sync.RWMutex
	nodes map[value.VarName]struct{}
	byVar map[value.VarName]Edges // on -> edges it currently contributes
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[value.VarName]struct{}),
		byVar: make(map[value.VarName]Edges),
	}
}

// FromSpecification builds a Graph from every declared variable and, for
// each output, the edges its normalized equation contributes.
func FromSpecification(inputs, outputs []value.VarName, exprs map[value.VarName]ast.Expr) *Graph {
	g := New()
	for _, v := range inputs {
		g.addNode(v)
	}
	for _, v := range outputs {
		g.addNode(v)
		if e, ok := exprs[v]; ok {
			g.AddDependency(v, BuildEdges(e))
		}
	}
	return g
}

func (g *Graph) addNode(v value.VarName) {
	g.nodes[v] = struct{}{}
}

// AddDependency merges e into the edges on currently contributes.
func (g *Graph) AddDependency(on value.VarName, e Edges) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[on] = struct{}{}
	cur, ok := g.byVar[on]
	if !ok {
		cur = make(Edges, len(e))
	}
	for k := range e {
		cur[k] = struct{}{}
		g.nodes[k.to] = struct{}{}
	}
	g.byVar[on] = cur
}

// RemoveDependency subtracts e from the edges on currently contributes.
func (g *Graph) RemoveDependency(on value.VarName, e Edges) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur, ok := g.byVar[on]
	if !ok {
		return
	}
	for k := range e {
		delete(cur, k)
	}
	if len(cur) == 0 {
		delete(g.byVar, on)
		return
	}
	g.byVar[on] = cur
}

// Merge combines other's edges and nodes into g, returning g.
func (g *Graph) Merge(other *Graph) *Graph {
	g.mu.Lock()
	other.mu.RLock()
	defer g.mu.Unlock()
	defer other.mu.RUnlock()

	for v := range other.nodes {
		g.nodes[v] = struct{}{}
	}
	for on, edges := range other.byVar {
		cur, ok := g.byVar[on]
		if !ok {
			cur = make(Edges, len(edges))
		}
		for k := range edges {
			cur[k] = struct{}{}
		}
		g.byVar[on] = cur
	}
	return g
}

// Diff returns a new Graph holding exactly the edges present in g but not in
// other, for the same "on" variable. Nodes present in either graph are kept
// so the result remains a valid standalone graph.
func (g *Graph) Diff(other *Graph) *Graph {
	g.mu.RLock()
	other.mu.RLock()
	defer g.mu.RUnlock()
	defer other.mu.RUnlock()

	out := New()
	for v := range g.nodes {
		out.nodes[v] = struct{}{}
	}
	for on, edges := range g.byVar {
		otherEdges := other.byVar[on]
		diff := make(Edges)
		for k := range edges {
			if _, inOther := otherEdges[k]; !inOther {
				diff[k] = struct{}{}
			}
		}
		if len(diff) > 0 {
			out.byVar[on] = diff
		}
	}
	return out
}

func (g *Graph) edges() []edge {
	var out []edge
	for on, edges := range g.byVar {
		for k := range edges {
			out = append(out, edge{from: on, to: k.to, weight: k.weight})
		}
	}
	return out
}

// LongestPastWindow returns the largest number of past ticks any declared
// variable needs v retained for.
func (g *Graph) LongestPastWindow(v value.VarName) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	longest := 0
	for _, e := range g.edges() {
		if e.to == v && e.weight < 0 && -e.weight > longest {
			longest = -e.weight
		}
	}
	return longest
}

// LongestPastWindows returns LongestPastWindow for every node with at least
// one incoming past-reading edge.
func (g *Graph) LongestPastWindows() map[value.VarName]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[value.VarName]int)
	for _, e := range g.edges() {
		if e.weight >= 0 {
			continue
		}
		if w := -e.weight; w > out[e.to] {
			out[e.to] = w
		}
	}
	return out
}

// IsProductive reports whether the zero-weight subgraph is acyclic.
func (g *Graph) IsProductive() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adj := make(map[value.VarName][]value.VarName)
	for _, e := range g.edges() {
		if e.weight == 0 {
			adj[e.from] = append(adj[e.from], e.to)
		}
	}
	return !hasCycle(g.nodes, adj)
}

// color marks a node's position in the DFS recursion stack during cycle
// detection: 0 unvisited, 1 in progress, 2 done.
type color uint8

const (
	white color = iota
	gray
	black
)

func hasCycle(nodes map[value.VarName]struct{}, adj map[value.VarName][]value.VarName) bool {
	colors := make(map[value.VarName]color, len(nodes))
	var visit func(value.VarName) bool
	visit = func(v value.VarName) bool {
		colors[v] = gray
		for _, next := range adj[v] {
			switch colors[next] {
			case gray:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		colors[v] = black
		return false
	}

	for v := range nodes {
		if colors[v] == white {
			if visit(v) {
				return true
			}
		}
	}
	return false
}

// IsEffectivelyMonitorable reports whether no cycle in the graph has
// positive total weight. It negates every edge weight and runs Bellman-Ford
// from a virtual source connected to every node at distance 0: a negative
// cycle in the negated graph is exactly a positive-weight cycle in the
// original.
func (g *Graph) IsEffectivelyMonitorable() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	dist := make(map[value.VarName]int, len(g.nodes))
	for v := range g.nodes {
		dist[v] = 0
	}

	edges := g.edges()
	n := len(g.nodes)
	for i := 0; i < n-1; i++ {
		changed := false
		for _, e := range edges {
			w := -e.weight
			if dist[e.from]+w < dist[e.to] {
				dist[e.to] = dist[e.from] + w
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for _, e := range edges {
		w := -e.weight
		if dist[e.from]+w < dist[e.to] {
			return false
		}
	}
	return true
}

// DotGraph renders the graph in Graphviz dot format, edges labelled with
// their time offset.
func (g *Graph) DotGraph() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.nodes))
	for v := range g.nodes {
		names = append(names, v.Name())
	}
	sort.Strings(names)

	sb := &strings.Builder{}
	sb.WriteString("digraph DependencyGraph {\nrankdir=LR;\n")
	for _, e := range g.edges() {
		sb.WriteString(fmt.Sprintf(`"%s" -> "%s" [label="%d"];`, e.from.Name(), e.to.Name(), e.weight))
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
