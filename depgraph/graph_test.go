package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/value"
)

func TestBuildEdgesAccumulatesOffset(t *testing.T) {
	x := value.New("x")
	e := ast.SIndex{
		X:       ast.SIndex{X: ast.Var{Name: x}, Offset: -1, Default: ast.Lit{Value: value.Int(0)}},
		Offset:  -2,
		Default: ast.Lit{Value: value.Int(0)},
	}

	edges := BuildEdges(e)
	assert.Contains(t, edges, edgeKey{to: x, weight: -3})
}

func TestBuildEdgesResetsOffsetInDynamic(t *testing.T) {
	x := value.New("x")
	e := ast.SIndex{
		X:       ast.Dynamic{X: ast.Var{Name: x}},
		Offset:  -5,
		Default: ast.Lit{Value: value.Unit()},
	}

	edges := BuildEdges(e)
	assert.Contains(t, edges, edgeKey{to: x, weight: 0})
}

func TestProductiveAcceptsZeroWeightAcyclic(t *testing.T) {
	x, y, z := value.New("x"), value.New("y"), value.New("z")
	g := New()
	g.AddDependency(y, Edges{edgeKey{to: x, weight: 0}: {}})
	g.AddDependency(z, Edges{edgeKey{to: y, weight: 0}: {}})

	assert.True(t, g.IsProductive())
}

func TestProductiveRejectsZeroWeightCycle(t *testing.T) {
	x, y := value.New("x"), value.New("y")
	g := New()
	g.AddDependency(x, Edges{edgeKey{to: y, weight: 0}: {}})
	g.AddDependency(y, Edges{edgeKey{to: x, weight: 0}: {}})

	assert.False(t, g.IsProductive())
}

func TestMonitorableAcceptsNegativeWeightCycle(t *testing.T) {
	x, y := value.New("x"), value.New("y")
	g := New()
	g.AddDependency(x, Edges{edgeKey{to: y, weight: -1}: {}})
	g.AddDependency(y, Edges{edgeKey{to: x, weight: 0}: {}})

	assert.True(t, g.IsEffectivelyMonitorable())
}

func TestMonitorableRejectsPositiveWeightCycle(t *testing.T) {
	x, y := value.New("x"), value.New("y")
	g := New()
	g.AddDependency(x, Edges{edgeKey{to: y, weight: 1}: {}})
	g.AddDependency(y, Edges{edgeKey{to: x, weight: 0}: {}})

	assert.False(t, g.IsEffectivelyMonitorable())
}

func TestLongestPastWindow(t *testing.T) {
	x, y, z := value.New("x"), value.New("y"), value.New("z")
	g := New()
	g.AddDependency(y, Edges{edgeKey{to: x, weight: -2}: {}})
	g.AddDependency(z, Edges{edgeKey{to: x, weight: -5}: {}})

	assert.Equal(t, 5, g.LongestPastWindow(x))
	assert.Equal(t, map[value.VarName]int{x: 5}, g.LongestPastWindows())
}

func TestRemoveDependency(t *testing.T) {
	x, y := value.New("x"), value.New("y")
	g := New()
	e := Edges{edgeKey{to: x, weight: -1}: {}}
	g.AddDependency(y, e)
	assert.Equal(t, 1, g.LongestPastWindow(x))

	g.RemoveDependency(y, e)
	assert.Equal(t, 0, g.LongestPastWindow(x))
}

func TestMergeAndDiff(t *testing.T) {
	x, y := value.New("x"), value.New("y")
	a := New()
	a.AddDependency(y, Edges{edgeKey{to: x, weight: -1}: {}})

	b := New()
	b.AddDependency(y, Edges{edgeKey{to: x, weight: -1}: {}, edgeKey{to: x, weight: -2}: {}})

	diff := b.Diff(a)
	assert.Equal(t, 2, diff.LongestPastWindow(x))

	merged := New().Merge(a).Merge(b)
	assert.Equal(t, 2, merged.LongestPastWindow(x))
}

func TestFromSpecification(t *testing.T) {
	x, z := value.New("x"), value.New("z")
	exprs := map[value.VarName]ast.Expr{
		z: ast.SIndex{X: ast.Var{Name: x}, Offset: -1, Default: ast.Lit{Value: value.Int(0)}},
	}
	g := FromSpecification([]value.VarName{x}, []value.VarName{z}, exprs)

	assert.True(t, g.IsProductive())
	assert.True(t, g.IsEffectivelyMonitorable())
	assert.Equal(t, 1, g.LongestPastWindow(x))
	assert.Contains(t, g.DotGraph(), `"z" -> "x"`)
}
