// Package constraints implements the constraint-based runtime of spec.md
// §4.2/§4.3: a small-step symbolic simplifier driven one tick at a time over
// a four-container store, as an alternative to the subscriber-driven async
// runtime in runtime/async.
package constraints

import (
	"sync"

	"github.com/trustmon/lola/ast"
	"github.com/trustmon/lola/value"
)

// sample is one (absolute_time, Value) pair.
type sample struct {
	t int
	v value.Value
}

// pending is one (absolute_time, Expression) pair awaiting resolution.
type pending struct {
	t int
	e ast.Expr
}

// Store holds the four time-indexed containers spec.md §4.2 describes:
// input samples, the as-written output equations, the not-yet-resolved
// per-tick output instances (in absolute-time form), and the resolved
// output values. All four are indexed by VarName, then by tick.
type Store struct {
	mu sync.RWMutex

	inputStreams map[value.VarName][]sample
	outputExprs  map[value.VarName]ast.Expr
	unresolved   map[value.VarName][]pending
	resolved     map[value.VarName][]sample

	now int
}

// NewStore returns an empty Store with one output equation registered per
// entry of exprs. Input variables need no entry until their first sample
// arrives.
func NewStore(exprs map[value.VarName]ast.Expr) *Store {
	s := &Store{
		inputStreams: make(map[value.VarName][]sample),
		outputExprs:  make(map[value.VarName]ast.Expr),
		unresolved:   make(map[value.VarName][]pending),
		resolved:     make(map[value.VarName][]sample),
	}
	for v, e := range exprs {
		s.outputExprs[v] = e
	}
	return s
}

// Now returns the current logical tick (the number of ticks ingested so far).
func (s *Store) Now() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// Ingest appends value for name at the current tick to input_streams, per
// spec.md §4.3 step 1.
func (s *Store) Ingest(name value.VarName, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputStreams[name] = append(s.inputStreams[name], sample{t: s.now, v: v})
}

// InputAt returns the value ingested for name at absolute tick t, if any.
func (s *Store) InputAt(name value.VarName, t int) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, smp := range s.inputStreams[name] {
		if smp.t == t {
			return smp.v, true
		}
	}
	return value.Unknown(), false
}

// ResolvedAt returns the resolved output value for name at absolute tick t,
// if any.
func (s *Store) ResolvedAt(name value.VarName, t int) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, smp := range s.resolved[name] {
		if smp.t == t {
			return smp.v, true
		}
	}
	return value.Unknown(), false
}

// Lookup resolves a reference to name at absolute tick t, checking input
// samples first and then resolved outputs, which is exactly the lookup the
// simplifier needs when it encounters an ast.AbsRef.
func (s *Store) Lookup(name value.VarName, t int) (value.Value, bool) {
	if v, ok := s.InputAt(name, t); ok {
		return v, ok
	}
	return s.ResolvedAt(name, t)
}

// AddUnresolved records an absolute-time expression for name at tick t,
// pending resolution.
func (s *Store) AddUnresolved(name value.VarName, t int, e ast.Expr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unresolved[name] = append(s.unresolved[name], pending{t: t, e: e})
}

// Unresolved returns a copy of the unresolved backlog for name.
func (s *Store) Unresolved(name value.VarName) []struct {
	Time int
	Expr ast.Expr
} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]struct {
		Time int
		Expr ast.Expr
	}, len(s.unresolved[name]))
	for i, p := range s.unresolved[name] {
		out[i] = struct {
			Time int
			Expr ast.Expr
		}{Time: p.t, Expr: p.e}
	}
	return out
}

// Resolve moves (name, t) from unresolved to resolved with value v.
func (s *Store) Resolve(name value.VarName, t int, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.unresolved[name][:0]
	for _, p := range s.unresolved[name] {
		if p.t == t {
			continue
		}
		kept = append(kept, p)
	}
	s.unresolved[name] = kept
	s.resolved[name] = append(s.resolved[name], sample{t: t, v: v})
}

// ReplaceUnresolvedExpr overwrites the pending expression for (name, t),
// leaving it unresolved. Used after a partial simplification step.
func (s *Store) ReplaceUnresolvedExpr(name value.VarName, t int, e ast.Expr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.unresolved[name] {
		if p.t == t {
			s.unresolved[name][i].e = e
			return
		}
	}
}

// OutputExpr returns the as-written equation for an output variable.
func (s *Store) OutputExpr(name value.VarName) (ast.Expr, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.outputExprs[name]
	return e, ok
}

// SetOutputExpr overwrites the as-written equation for an output variable.
// Runtime.Step calls this once a Defer's bootstrap probe resolves, so the
// parsed replacement — not the original defer(...) node — is what every
// later tick's seedUnresolved derives its absolute instance from.
func (s *Store) SetOutputExpr(name value.VarName, e ast.Expr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputExprs[name] = e
}

// AdvanceTick increments the logical clock, per spec.md §4.3 step 5.
func (s *Store) AdvanceTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now++
}

// Cleanup prunes input_streams and resolved entries older than
// now - window(v) for every v reported by windows, per spec.md §4.2's
// retention invariant. A window of 0 means "no past reference", so every
// entry strictly before now is eligible; callers pass math.MaxInt for
// variables that must be retained forever (no reporting entry at all has
// the same effect, since absence defaults to no pruning).
func (s *Store) Cleanup(windows map[value.VarName]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, window := range windows {
		cutoff, overflowed := subtractNoWrap(s.now, window)
		if overflowed {
			continue // treat as "keep forever", matching spec.md's stated policy
		}

		s.inputStreams[name] = pruneSamples(s.inputStreams[name], cutoff)
		s.resolved[name] = pruneSamples(s.resolved[name], cutoff)
	}
}

func pruneSamples(in []sample, cutoff int) []sample {
	out := in[:0]
	for _, smp := range in {
		if smp.t >= cutoff {
			out = append(out, smp)
		}
	}
	return out
}

// subtractNoWrap computes now-window without risking signed-integer
// wraparound turning a very large window into a spuriously small or
// negative cutoff.
func subtractNoWrap(now, window int) (cutoff int, overflowed bool) {
	if window < 0 {
		return 0, true
	}
	if window > now {
		return 0, false
	}
	return now - window, false
}
