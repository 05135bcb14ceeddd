package constraints

import (
	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/value"
)

// BootstrapError reports that a defer/dynamic property string failed to
// parse, or that the parsed expression was ill-typed for its context.
// spec.md §9 Open Question (b) asks implementations to surface this as a
// reported error on the affected stream rather than the two divergent
// legacy behaviors (silent collapse to Unknown in the absolute path, panic
// in the relative path); this type is that report.
type BootstrapError struct {
	Var    value.VarName
	Source string
	Err    error
}

func (e *BootstrapError) Error() string {
	return "constraints: bootstrap of " + e.Var.String() + " from " + quote(e.Source) + ": " + e.Err.Error()
}

func (e *BootstrapError) Unwrap() error { return e.Err }

func quote(s string) string { return "\"" + s + "\"" }

// Parser turns the string a defer/dynamic probe yields into the expression
// it bootstraps. Concrete surface syntax is out of scope (spec.md §1); the
// runtime is handed an implementation of this one-method interface.
type Parser interface {
	Parse(s string) (ast.Expr, error)
}
