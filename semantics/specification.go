package semantics

import (
	"context"
	"fmt"

	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/spec"
	"github.com/trustmon/lola/value"
)

// cell holds a Combinator that starts out unset and is filled in once
// CompileSpecification finishes compiling the output it belongs to.
// Registering every output's variable manager before compiling any
// equation lets equations subscribe to each other regardless of
// declaration order: the subscription only needs the manager to exist, not
// for its Combinator to be ready yet, because the actual call happens on
// the first AdvanceClock, by which point every cell has been filled.
type cell struct {
	c Combinator
}

// CompileSpecification registers every input and output of s into actx and
// compiles every output's equation, wiring inter-output references up
// correctly no matter what order the outputs were declared in. Input
// variables must already have been registered by the caller (they are fed
// by an external source, not compiled from an equation).
func CompileSpecification(ctx context.Context, actx *async.Context, s *spec.Specification, parser Parser, bufferSize int) error {
	cells := make(map[value.VarName]*cell, len(s.OutputVars))
	for _, v := range s.OutputVars {
		cells[v] = &cell{}
	}

	for _, v := range s.OutputVars {
		c := cells[v]
		actx.Register(v, bufferSize, func(ctx context.Context) (value.Value, bool, error) {
			if c.c == nil {
				return value.Unknown(), false, fmt.Errorf("semantics: %s ticked before its equation finished compiling", v)
			}
			return c.c(ctx)
		})
	}

	for _, v := range s.OutputVars {
		e, ok := s.VarExpr(v)
		if !ok {
			return fmt.Errorf("semantics: output %s has no equation", v)
		}
		compiled, err := Compile(ctx, e, actx, parser)
		if err != nil {
			return fmt.Errorf("semantics: compiling %s: %w", v, err)
		}
		cells[v].c = compiled
	}

	return nil
}
