// Package output implements the output side of spec.md §4.8: a Handler
// subscribes to every declared output variable and drives them to
// completion, the Go analogue of the original's OutputHandler trait
// (provide_streams/run). Manual collects one merged snapshot per tick for
// tests and programmatic consumers; Null and Stdout are thin wrappers
// around it, matching how the original's NullOutputHandler and
// StdoutOutputHandler both embed a ManualOutputHandler rather than
// reimplementing the join.
package output

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/value"
)

// Snapshot is one tick's worth of values across every output variable a
// Handler was given, keyed by name so callers don't depend on declaration
// order.
type Snapshot struct {
	Tick   int
	Values map[value.VarName]value.Value
}

// Handler is the Go shape of the original's OutputHandler trait: a
// two-phase lifecycle where ProvideStreams wires up subscriptions and Run
// drives them until the specification's outputs are exhausted.
type Handler interface {
	VarNames() []value.VarName
	ProvideStreams(ctx context.Context, actx *async.Context) error
	Run(ctx context.Context) error
}

// Manual collects a combined Snapshot per tick, stopping as soon as any one
// output stream ends, matching the original's join_all-based
// "stop outputting when any of the streams ends" behavior. Tests read
// Output() to assert on the exact sequence of emitted snapshots.
type Manual struct {
	varNames []value.VarName
	channels map[value.VarName]<-chan value.Value
	out      chan Snapshot
}

// NewManual returns a Manual collecting snapshots over varNames, in the
// declared order.
func NewManual(varNames []value.VarName) *Manual {
	return &Manual{
		varNames: append([]value.VarName(nil), varNames...),
		out:      make(chan Snapshot, 1),
	}
}

// VarNames reports the variables this handler was constructed with.
func (m *Manual) VarNames() []value.VarName { return m.varNames }

// ProvideStreams subscribes to every variable named by VarNames. It must be
// called exactly once, after every output has been registered with actx.
func (m *Manual) ProvideStreams(ctx context.Context, actx *async.Context) error {
	channels := make(map[value.VarName]<-chan value.Value, len(m.varNames))
	for _, name := range m.varNames {
		ch, err := actx.Subscribe(ctx, name, ctx)
		if err != nil {
			return fmt.Errorf("output: subscribing to %s: %w", name, err)
		}
		channels[name] = ch
	}
	m.channels = channels
	return nil
}

// Output returns the stream of combined snapshots; it closes once Run
// returns.
func (m *Manual) Output() <-chan Snapshot { return m.out }

// Run pulls one value from every subscribed channel per tick, concurrently,
// and emits a Snapshot once all of them have answered. It stops, closing
// Output's channel, the first tick any one stream is exhausted.
func (m *Manual) Run(ctx context.Context) error {
	defer close(m.out)

	type result struct {
		name value.VarName
		v    value.Value
		ok   bool
	}

	for tick := 0; ; tick++ {
		g, gctx := errgroup.WithContext(ctx)
		resultsCh := make(chan result, len(m.varNames))

		for name, ch := range m.channels {
			name, ch := name, ch
			g.Go(func() error {
				select {
				case v, ok := <-ch:
					resultsCh <- result{name, v, ok}
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
		close(resultsCh)

		values := make(map[value.VarName]value.Value, len(m.varNames))
		for r := range resultsCh {
			if !r.ok {
				// Stop outputting as soon as any one stream ends, matching
				// the original's join_all-based early exit.
				return nil
			}
			values[r.name] = r.v
		}

		select {
		case m.out <- Snapshot{Tick: tick, Values: values}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
