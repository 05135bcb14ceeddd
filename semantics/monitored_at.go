package semantics

import (
	"context"
	"fmt"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/distribution"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// compileMonitoredAt subscribes to the boolean stream distribution.Register
// precomputed for (n.Var, n.Node): monitored_at(x, N) is true at tick t iff
// x is assigned to node N in the snapshot arriving at t.
func compileMonitoredAt(ctx context.Context, n ast.MonitoredAt, actx *async.Context) (Combinator, error) {
	name := distribution.StreamName(n.Var, n.Node)
	ch, err := actx.Subscribe(ctx, name, ctx)
	if err != nil {
		return nil, fmt.Errorf("semantics: compiling monitored_at(%s, %s): %w", n.Var, n.Node, err)
	}
	return func(callCtx context.Context) (value.Value, bool, error) {
		select {
		case v, ok := <-ch:
			if !ok {
				return value.Unknown(), false, nil
			}
			return v, true, nil
		case <-callCtx.Done():
			return value.Unknown(), false, callCtx.Err()
		}
	}, nil
}
