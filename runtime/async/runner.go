package async

import (
	"context"
	"errors"
	"time"

	"github.com/trustmon/lola/depgraph"
	"github.com/trustmon/lola/log"
	"github.com/trustmon/lola/value"
)

// ErrNotProductive is returned by Validate when the dependency graph has a
// zero-weight cycle, so some output can never resolve.
var ErrNotProductive = errors.New("async: specification is not productive")

// ErrNotMonitorable is returned by Validate when the dependency graph has a
// positive-weight cycle, so some output cannot be effectively monitored.
var ErrNotMonitorable = errors.New("async: specification is not effectively monitorable")

// ValueSource produces one input variable's stream of values: one source
// per declared input, rather than one multiplexed feed.
type ValueSource interface {
	Next(ctx context.Context) (value.Value, bool, error)
}

// OutputProvider is whatever installs combinator streams for a
// Specification's outputs against actx — semantics.CompileSpecification
// satisfies this. It is taken as a function value rather than an interface
// so Runner doesn't need to import semantics, which already imports
// runtime/async.
type OutputProvider func(ctx context.Context, actx *Context) error

// StreamProvider is the output.Handler half of spec.md §4.8's contract:
// ProvideStreams installs subscriptions, Run drives them to completion.
type StreamProvider interface {
	ProvideStreams(ctx context.Context, actx *Context) error
	Run(ctx context.Context) error
}

// Runner wires a Context's input and output variable managers together and
// drives the clock, per spec.md §4.7: build one manager per input, install
// the compiled output streams, hand everything to the output handler, and
// run the clock until the handler reports completion.
type Runner struct {
	actx       *Context
	resolver   depgraph.Resolver
	inputs     map[value.VarName]ValueSource
	bufferSize int
	provide    OutputProvider
	handler    StreamProvider
}

// NewRunner returns a Runner over actx. provide installs every output's
// combinator stream (typically semantics.CompileSpecification bound to a
// Specification and Parser); inputs supplies one ValueSource per declared
// input variable; handler receives the resulting streams.
func NewRunner(actx *Context, resolver depgraph.Resolver, inputs map[value.VarName]ValueSource, bufferSize int, provide OutputProvider, handler StreamProvider) *Runner {
	return &Runner{
		actx:       actx,
		resolver:   resolver,
		inputs:     inputs,
		bufferSize: bufferSize,
		provide:    provide,
		handler:    handler,
	}
}

// Validate rejects a Runner whose dependency graph is not safely runnable:
// a zero-weight cycle means some output can never become productive, and a
// positive-weight cycle means it is not effectively monitorable (spec.md
// §4.2/§4.3 productivity and monitorability checks, performed once up front
// rather than being rediscovered as a runtime deadlock).
func (r *Runner) Validate() error {
	if !r.resolver.IsProductive() {
		log.New("inputs", len(r.inputs)).Warnw("rejecting runner: specification not productive")
		return ErrNotProductive
	}
	if !r.resolver.IsEffectivelyMonitorable() {
		log.New("inputs", len(r.inputs)).Warnw("rejecting runner: specification not effectively monitorable")
		return ErrNotMonitorable
	}
	return nil
}

// Context returns the Runner's Context, for a caller that wires with Wire
// and then drives AdvanceClock itself on its own external pacing rather
// than letting Run free-run the clock (config.Monitor.AutoClockInterval
// returning 0 signals exactly that mode).
func (r *Runner) Context() *Context { return r.actx }

// Wire registers every input's variable manager, installs the output
// streams, and hands them to the handler, without starting any clock.
// Exposed separately from Run for externally-paced callers that drive
// AdvanceClock themselves via Context().
func (r *Runner) Wire(ctx context.Context) error {
	for name, src := range r.inputs {
		src := src
		r.actx.Register(name, r.bufferSize, func(ctx context.Context) (value.Value, bool, error) {
			return src.Next(ctx)
		})
	}

	if err := r.provide(ctx, r.actx); err != nil {
		return err
	}

	log.New("inputs", len(r.inputs)).Infow("runner wired")
	return r.handler.ProvideStreams(ctx, r.actx)
}

// Run wires the Runner (see Wire) then free-runs the clock at interval
// until ctx is cancelled or the handler finishes — spec.md's "spawns the
// context into auto-clock mode ... awaits completion". interval must be
// positive; it is the free-running monitor's tick period. Externally-paced
// callers should use Wire and Context().AdvanceClock instead.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if err := r.Wire(ctx); err != nil {
		return err
	}

	log.New("interval", interval).Infow("runner starting auto clock")
	stop := r.actx.StartAutoClock(ctx, interval)
	defer stop()

	return r.handler.Run(ctx)
}
