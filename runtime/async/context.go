package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trustmon/lola/value"
)

// Context bundles every declared variable's manager behind one shared
// logical clock, as spec.md §4.5 describes. Evaluating a RestrictedDynamic
// node builds a Subcontext restricted to its capture set, so the
// bootstrapped expression cannot observe any variable Normalize excluded.
type Context struct {
	mu   sync.RWMutex
	vars map[value.VarName]*varManager
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{vars: make(map[value.VarName]*varManager)}
}

// Register installs a variable manager for name, backed by recv. Calling
// Register twice for the same name replaces the manager; callers typically
// register once per declared variable before the first AdvanceClock.
func (c *Context) Register(name value.VarName, bufferSize int, recv func(ctx context.Context) (value.Value, bool, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[name] = newVarManager(name, bufferSize, recv)
}

// Subscribe registers a new subscriber to name's stream, bounded by sctx.
func (c *Context) Subscribe(ctx context.Context, name value.VarName, sctx context.Context) (<-chan value.Value, error) {
	c.mu.RLock()
	m, ok := c.vars[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("async: no variable manager registered for %s", name)
	}
	return m.Subscribe(ctx, sctx)
}

// Clock reports, for diagnostics, the minimum tick count reached so far
// across all registered variables, or 0 if none is registered (the logical clock
// only advances uniformly across a AdvanceClock barrier, so in steady state
// every manager agrees).
func (c *Context) Clock() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	min := -1
	for _, m := range c.vars {
		ck := m.Clock()
		if min == -1 || ck < min {
			min = ck
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

// AdvanceClock ticks every registered variable manager once, concurrently,
// and does not return until all of them have (spec.md: "within one
// context's advance_clock all variables advance once before the call
// returns"). The order in which distinct variables reach a tick relative to
// each other is unspecified, matching errgroup's unordered fan-out.
func (c *Context) AdvanceClock(ctx context.Context) error {
	c.mu.RLock()
	managers := make([]*varManager, 0, len(c.vars))
	for _, m := range c.vars {
		managers = append(managers, m)
	}
	c.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range managers {
		m := m
		g.Go(func() error {
			_, err := m.Tick(gctx)
			return err
		})
	}
	return g.Wait()
}

// LazyAdvanceClock is AdvanceClock's variant that skips every manager
// already in the Closed stage instead of ticking it.
func (c *Context) LazyAdvanceClock(ctx context.Context) error {
	c.mu.RLock()
	managers := make([]*varManager, 0, len(c.vars))
	for _, m := range c.vars {
		managers = append(managers, m)
	}
	c.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range managers {
		m := m
		g.Go(func() error {
			if m.Stage() == Closed {
				return nil
			}
			_, err := m.Tick(gctx)
			return err
		})
	}
	return g.Wait()
}

// StartAutoClock runs LazyAdvanceClock on a fixed interval until ctx is
// cancelled, a tick returns an error, or the returned stop function is called, for callers that want
// a free-running monitor rather than externally paced ticks.
func (c *Context) StartAutoClock(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.LazyAdvanceClock(ctx); err != nil {
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Subcontext returns a new Context sharing the variable managers named by
// vars with c. It is used to evaluate a RestrictedDynamic node's
// bootstrapped expression against exactly its capture set, so the
// expression cannot subscribe to a variable Normalize excluded.
func (c *Context) Subcontext(vars []value.VarName) *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sub := NewContext()
	for _, v := range vars {
		if m, ok := c.vars[v]; ok {
			sub.vars[v] = m
		}
	}
	return sub
}
