package semantics

import (
	"context"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// Register installs c as the variable manager backing name, so that an
// equation referencing name as a Var can subscribe to it the same way it
// would subscribe to a raw input. This is how one output's compiled
// equation becomes visible to another output's equation that reads it.
func Register(actx *async.Context, name value.VarName, c Combinator, bufferSize int) {
	actx.Register(name, bufferSize, func(ctx context.Context) (value.Value, bool, error) {
		return c(ctx)
	})
}

// CompileAndRegister compiles e and immediately registers the result as
// name's variable manager, the common case when wiring a whole
// specification's outputs into one Context.
func CompileAndRegister(ctx context.Context, name value.VarName, e ast.Expr, actx *async.Context, parser Parser, bufferSize int) error {
	c, err := Compile(ctx, e, actx, parser)
	if err != nil {
		return err
	}
	Register(actx, name, c, bufferSize)
	return nil
}
