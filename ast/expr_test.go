package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trustmon/lola/value"
)

func TestFreeVars(t *testing.T) {
	x := value.New("x")
	y := value.New("y")

	e := BinOp{Left: Var{Name: x}, Right: SIndex{X: Var{Name: y}, Offset: -1, Default: Lit{Value: value.Int(0)}}, Op: Add}
	free := FreeVars(e)
	assert.ElementsMatch(t, []value.VarName{x, y}, free)
}

func TestNormalizeExcludesSelf(t *testing.T) {
	self := value.New("z")
	x := value.New("x")
	declared := []value.VarName{self, x}

	e := Dynamic{X: BinOp{Left: Var{Name: x}, Right: Var{Name: self}, Op: Add}}
	got := Normalize(e, self, declared)

	rd, ok := got.(RestrictedDynamic)
	assert.True(t, ok)
	assert.Equal(t, []value.VarName{x}, rd.Vars)
}

func TestNormalizeNested(t *testing.T) {
	self := value.New("w")
	a := value.New("a")
	declared := []value.VarName{self, a}

	e := If{
		Cond: Lit{Value: value.Bool(true)},
		Then: Dynamic{X: Var{Name: a}},
		Else: Lit{Value: value.Unknown()},
	}
	got := Normalize(e, self, declared).(If)
	rd, ok := got.Then.(RestrictedDynamic)
	assert.True(t, ok)
	assert.Equal(t, []value.VarName{a}, rd.Vars)
}
