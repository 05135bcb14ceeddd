package constraints

import (
	"fmt"

	"github.com/trustmon/lola/depgraph"
	"github.com/trustmon/lola/log"
	"github.com/trustmon/lola/value"
)

// Runtime drives a Store forward one tick at a time, implementing the six
// steps of spec.md §4.3: ingest, fixed-point simplify, snapshot to
// absolute, a second fixed-point pass over anything the first pass
// unblocked, advance the clock, and garbage-collect per dependency window.
type Runtime struct {
	store      *Store
	resolver   depgraph.Resolver
	parser     Parser
	outputVars []value.VarName
}

// NewRuntime returns a Runtime over store, consulting resolver for retention
// windows and parser for Defer/Dynamic bootstrap.
func NewRuntime(store *Store, resolver depgraph.Resolver, parser Parser, outputVars []value.VarName) *Runtime {
	return &Runtime{store: store, resolver: resolver, parser: parser, outputVars: outputVars}
}

// Step ingests one sample per entry of inputs at the current tick, drives
// every output to a fixed point, garbage-collects, and returns the outputs
// whose instance for the current tick resolved. An instance for an earlier
// tick that resolves during this Step (for example one waiting on a future
// offset) is recorded in the store but is not part of the returned map.
func (r *Runtime) Step(inputs map[value.VarName]value.Value) (map[value.VarName]value.Value, error) {
	t := r.store.Now()

	for name, v := range inputs {
		r.store.Ingest(name, v)
	}

	if err := r.templateFixedPoint(t); err != nil {
		return nil, err
	}

	r.seedUnresolved(t)

	if err := r.fixedPoint(); err != nil {
		return nil, err
	}
	// A second pass catches outputs that became resolvable only because a
	// sibling output resolved earlier in the same tick's first pass.
	if err := r.fixedPoint(); err != nil {
		return nil, err
	}

	out := make(map[value.VarName]value.Value)
	for _, v := range r.outputVars {
		if val, ok := r.store.ResolvedAt(v, t); ok {
			out[v] = val
		}
	}

	r.store.AdvanceTick()
	r.store.Cleanup(r.resolver.LongestPastWindows())
	return out, nil
}

// templateFixedPoint runs TemplateSimplify over every output's as-written
// equation until a full pass rewrites nothing, persisting any change back
// into the store (spec.md §4.3 step 2's "kept as Val(v) in place", and more
// generally the original reference's receive_inputs pass over
// output_exprs). This is what lets a bootstrapped Defer survive past the
// tick that bootstrapped it instead of being rederived from the pristine
// equation every tick.
func (r *Runtime) templateFixedPoint(t int) error {
	for {
		progressed := false
		for _, v := range r.outputVars {
			expr, ok := r.store.OutputExpr(v)
			if !ok {
				continue
			}
			simplified, err := TemplateSimplify(r.store, r.parser, expr, t)
			if err != nil {
				log.ForVar(v).Warnw("defer bootstrap failed", "tick", t, "error", err)
				return fmt.Errorf("constraints: bootstrapping %s: %w", v, err)
			}
			if !sameExpr(simplified, expr) {
				log.ForVar(v).Infow("equation rewritten", "tick", t)
				r.store.SetOutputExpr(v, simplified)
				progressed = true
			}
		}
		if !progressed {
			return nil
		}
	}
}

// seedUnresolved adds one absolute-time pending expression per output that
// has neither resolved nor already been added for tick t.
func (r *Runtime) seedUnresolved(t int) {
	for _, v := range r.outputVars {
		if _, ok := r.store.ResolvedAt(v, t); ok {
			continue
		}
		if r.hasUnresolvedAt(v, t) {
			continue
		}
		expr, ok := r.store.OutputExpr(v)
		if !ok {
			continue
		}
		r.store.AddUnresolved(v, t, ToAbsolute(expr, t))
	}
}

func (r *Runtime) hasUnresolvedAt(v value.VarName, t int) bool {
	for _, p := range r.store.Unresolved(v) {
		if p.Time == t {
			return true
		}
	}
	return false
}

// fixedPoint runs Simplify over every pending expression until a full pass
// resolves or rewrites nothing, implementing the "fix-point simplify
// equations" step of spec.md §4.3.
func (r *Runtime) fixedPoint() error {
	for {
		progressed := false
		for _, v := range r.outputVars {
			for _, p := range r.store.Unresolved(v) {
				simplified, err := Simplify(r.store, r.parser, p.Expr)
				if err != nil {
					return fmt.Errorf("constraints: simplifying %s@%d: %w", v, p.Time, err)
				}
				if lit, ok := asLit(simplified); ok {
					r.store.Resolve(v, p.Time, lit)
					progressed = true
					continue
				}
				if !sameExpr(simplified, p.Expr) {
					r.store.ReplaceUnresolvedExpr(v, p.Time, simplified)
					progressed = true
				}
			}
		}
		if !progressed {
			return nil
		}
	}
}
