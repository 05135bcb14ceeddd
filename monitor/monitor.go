// Package monitor is the top-level wiring a deployment reaches for: given a
// validated spec.Specification it builds the dependency graph once and
// hands out either of the two runtimes (constraint-based or async); the
// output handler the async runtime drives is supplied by the caller.
package monitor

import (
	"context"
	"time"

	"github.com/trustmon/lola/admin"
	"github.com/trustmon/lola/config"
	"github.com/trustmon/lola/constraints"
	"github.com/trustmon/lola/depgraph"
	"github.com/trustmon/lola/runtime/async"
	"github.com/trustmon/lola/semantics"
	"github.com/trustmon/lola/spec"
	"github.com/trustmon/lola/value"
)

// Monitor wraps a validated Specification and the dependency graph built
// from it. Both runtimes below are built from this one Monitor so a
// deployment only resolves the graph once regardless of which runtime it
// picks.
type Monitor struct {
	Spec  *spec.Specification
	Graph *depgraph.Graph
}

// New builds a Monitor from s's declared inputs, outputs and equations.
func New(s *spec.Specification) *Monitor {
	return &Monitor{
		Spec:  s,
		Graph: depgraph.FromSpecification(s.InputVars, s.OutputVars, s.Exprs),
	}
}

// Validate rejects a Monitor whose dependency graph cannot be safely run:
// unproductive (a zero-weight cycle) or not effectively monitorable (a
// positive-weight cycle), per spec.md §4.2/§4.3.
func (m *Monitor) Validate() error {
	if !m.Graph.IsProductive() {
		return async.ErrNotProductive
	}
	if !m.Graph.IsEffectivelyMonitorable() {
		return async.ErrNotMonitorable
	}
	return nil
}

// ConstraintRuntime builds the synchronous, Step-driven runtime over a
// fresh Store, per spec.md §4.3.
func (m *Monitor) ConstraintRuntime(parser constraints.Parser) *constraints.Runtime {
	store := constraints.NewStore(m.Spec.Exprs)
	return constraints.NewRuntime(store, m.Graph, parser, m.Spec.OutputVars)
}

// AdminServer builds the diagnostic HTTP server for this Monitor, reading
// its listen address and variable allow-list out of cfg. The exposed
// variable list is the union of m.Spec's declared inputs and outputs,
// since either can appear in a Defer/Dynamic-resolved equation a deployer
// wants to inspect.
func (m *Monitor) AdminServer(cfg config.Monitor) *admin.Server {
	return admin.NewDiagnosticsServer(admin.Config{Addr: cfg.AdminAddr()}, m.Graph, m.Spec.AllVars(), cfg.AllowedVars())
}

// AsyncRunner builds the subscriber-driven runtime of spec.md §4.7: one
// ValueSource per declared input feeds actx, the Specification's equations
// are compiled against actx, and the resulting output streams are handed to
// handler. bufferSize sizes both the input managers and
// semantics.CompileSpecification's lazily-registered output managers.
func (m *Monitor) AsyncRunner(actx *async.Context, inputs map[value.VarName]async.ValueSource, bufferSize int, parser semantics.Parser, handler async.StreamProvider) *async.Runner {
	provide := func(ctx context.Context, actx *async.Context) error {
		return semantics.CompileSpecification(ctx, actx, m.Spec, parser, bufferSize)
	}
	return async.NewRunner(actx, m.Graph, inputs, bufferSize, provide, handler)
}

// Run is a convenience wrapper around AsyncRunner for callers that don't
// need the Runner value itself: it validates, wires, and free-runs the
// clock at interval until the handler finishes or ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, inputs map[value.VarName]async.ValueSource, bufferSize int, parser semantics.Parser, handler async.StreamProvider, interval time.Duration) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r := m.AsyncRunner(async.NewContext(), inputs, bufferSize, parser, handler)
	return r.Run(ctx, interval)
}

// RunAsFastAsPossible is Run's externally-paced counterpart, for a
// config.Monitor whose AutoClockInterval reads 0 (unset): it wires the
// Runner, then advances the clock back-to-back — bounded only by the
// handler's own consumption rate — until the handler finishes.
func (m *Monitor) RunAsFastAsPossible(ctx context.Context, inputs map[value.VarName]async.ValueSource, bufferSize int, parser semantics.Parser, handler async.StreamProvider) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r := m.AsyncRunner(async.NewContext(), inputs, bufferSize, parser, handler)
	if err := r.Wire(ctx); err != nil {
		return err
	}

	runDone := make(chan error, 1)
	go func() { runDone <- handler.Run(ctx) }()

	for {
		select {
		case err := <-runDone:
			return err
		default:
			if err := r.Context().AdvanceClock(ctx); err != nil {
				<-runDone
				return err
			}
		}
	}
}
