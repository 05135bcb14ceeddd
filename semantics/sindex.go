package semantics

import (
	"context"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// compileSIndex implements relative time-indexing (spec.md §4.6): a
// negative offset reads the past, so the combinator retains a small FIFO of
// the last |offset| values and drains it for |offset| extra ticks once the
// underlying stream is exhausted ("the history tail is prepended", per
// spec.md's documented end-of-stream behavior). A positive offset reads the
// future: since the value this tick needs is simply whichever value arrives
// offset calls later, no buffer is needed there — only a counter for the
// warm-up period before enough look-ahead exists.
func compileSIndex(ctx context.Context, n ast.SIndex, actx *async.Context, parser Parser) (Combinator, error) {
	x, err := Compile(ctx, n.X, actx, parser)
	if err != nil {
		return nil, err
	}
	if n.Offset == 0 {
		return x, nil
	}
	def, err := Compile(ctx, n.Default, actx, parser)
	if err != nil {
		return nil, err
	}

	if n.Offset < 0 {
		return compilePastIndex(x, def, -n.Offset), nil
	}
	return compileFutureIndex(x, def, n.Offset), nil
}

func compilePastIndex(x, def Combinator, delay int) Combinator {
	buffer := make([]value.Value, 0, delay)
	return func(ctx context.Context) (value.Value, bool, error) {
		xv, ok, err := x(ctx)
		if err != nil {
			return value.Unknown(), false, err
		}
		if !ok {
			if len(buffer) > 0 {
				out := buffer[0]
				buffer = buffer[1:]
				return out, true, nil
			}
			return value.Unknown(), false, nil
		}

		if len(buffer) < delay {
			buffer = append(buffer, xv)
			return def(ctx)
		}
		buffer = append(buffer, xv)
		out := buffer[0]
		buffer = buffer[1:]
		return out, true, nil
	}
}

func compileFutureIndex(x, def Combinator, lookahead int) Combinator {
	j := 0
	return func(ctx context.Context) (value.Value, bool, error) {
		xv, ok, err := x(ctx)
		if err != nil || !ok {
			return value.Unknown(), false, err
		}
		if j < lookahead {
			j++
			return def(ctx)
		}
		j++
		return xv, true, nil
	}
}
