// Package ast defines the expression tree equations are written in:
// arithmetic/boolean/string/list operators, conditionals, past/future
// time-indexing, default, and the three dynamic-property forms
// (dynamic, defer, update).
package ast

import "github.com/trustmon/lola/value"

// Expr is the sealed interface implemented by every node of the expression
// tree. Concrete parsing and type-checking live outside this module; this
// package only defines the tree shape and the semantics-independent
// transformations (Normalize, Walk, FreeVars) operations on it need.
type Expr interface {
	isExpr()
}

// Lit is a literal value.
type Lit struct{ Value value.Value }

// Var reads the current-tick value of a declared stream.
type Var struct{ Name value.VarName }

// BinOpKind enumerates the binary operators of spec.md §6.
type BinOpKind uint8

const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
	Mod
	And
	Or
	Concat
	Eq
	Neq
	Le
	Lt
	Ge
	Gt
)

// BinOp applies a binary operator to two subexpressions.
type BinOp struct {
	Left, Right Expr
	Op          BinOpKind
}

// Not negates a boolean subexpression.
type Not struct{ X Expr }

// If selects Then or Else based on Cond.
type If struct{ Cond, Then, Else Expr }

// SIndex accesses X at a relative time Offset (negative = past, positive =
// future, zero = current tick), yielding Default when the offset would read
// before the start of the stream.
type SIndex struct {
	X       Expr
	Offset  int
	Default Expr
}

// Default substitutes D for X whenever X evaluates to Unknown.
type Default struct{ X, D Expr }

// Defer bootstraps a property from a string-valued expression: once X first
// yields a string s, Defer behaves as parse(s) from that tick forward; until
// then, and if parsing fails, see constraints.BootstrapError.
type Defer struct{ X Expr }

// Update yields E2's value whenever it is defined, falling back to E1.
type Update struct{ E1, E2 Expr }

// Dynamic is the as-written dynamic property form. Specification
// normalization (see Normalize) rewrites every Dynamic into a
// RestrictedDynamic before the runtime ever sees it, closing off the
// zero-weight self-cycle that an unrestricted dynamic capturing its own
// defining variable would introduce.
type Dynamic struct{ X Expr }

// RestrictedDynamic is Dynamic with an explicit capture set: the
// subcontext built to evaluate the bootstrapped expression is restricted to
// exactly Vars, which by construction excludes the variable whose equation
// this node appears in.
type RestrictedDynamic struct {
	X    Expr
	Vars []value.VarName
}

// When is false until the first tick X is defined, then true forever.
type When struct{ X Expr }

// IsDefined is true iff X's most recent value is not Unknown.
type IsDefined struct{ X Expr }

// List constructs a list value from its elements.
type List struct{ Elems []Expr }

// LIndex indexes into a list; out-of-range yields Unknown.
type LIndex struct{ List, Index Expr }

// LAppend appends an element to a list.
type LAppend struct{ List, Elem Expr }

// LConcat concatenates two lists.
type LConcat struct{ A, B Expr }

// LHead yields the first element of a list, or Unknown if empty.
type LHead struct{ X Expr }

// LTail yields all but the first element of a list, or Unknown if empty.
type LTail struct{ X Expr }

// Sin, Cos, Tan are elementwise trigonometric lifts over a Float stream,
// declared in spec.md §6's expression grammar.
type (
	Sin struct{ X Expr }
	Cos struct{ X Expr }
	Tan struct{ X Expr }
)

// MonitoredAt reads the labelled distribution graph snapshot stream and is
// true at tick t iff Var is assigned to the node named Node in the snapshot
// arriving at t. See the distribution package.
type MonitoredAt struct {
	Var  value.VarName
	Node string
}

// AbsRef is Var pinned to a specific absolute tick by constraints.ToAbsolute.
// It never appears in a specification as written; it is produced internally
// by the constraint-based runtime's simplifier.
type AbsRef struct {
	Name value.VarName
	Time int
}

// AbsDefer is Defer pinned to the absolute tick at which its bootstrap probe
// X must be evaluated, so that the string it eventually yields can itself be
// parsed and re-absolutized at the right tick.
type AbsDefer struct {
	X    Expr
	Time int
}

// AbsDynamic is RestrictedDynamic pinned to the absolute tick its bootstrap
// probe X must be evaluated at, carrying forward the capture-set
// restriction Normalize computed.
type AbsDynamic struct {
	X    Expr
	Time int
	Vars []value.VarName
}

func (Lit) isExpr()              {}
func (Var) isExpr()               {}
func (BinOp) isExpr()             {}
func (Not) isExpr()               {}
func (If) isExpr()                {}
func (SIndex) isExpr()            {}
func (Default) isExpr()           {}
func (Defer) isExpr()             {}
func (Update) isExpr()            {}
func (Dynamic) isExpr()           {}
func (RestrictedDynamic) isExpr() {}
func (When) isExpr()              {}
func (IsDefined) isExpr()         {}
func (List) isExpr()              {}
func (LIndex) isExpr()            {}
func (LAppend) isExpr()           {}
func (LConcat) isExpr()           {}
func (LHead) isExpr()             {}
func (LTail) isExpr()             {}
func (Sin) isExpr()               {}
func (Cos) isExpr()               {}
func (Tan) isExpr()               {}
func (MonitoredAt) isExpr()       {}
func (AbsRef) isExpr()            {}
func (AbsDefer) isExpr()          {}
func (AbsDynamic) isExpr()        {}
