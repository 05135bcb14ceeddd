// Package async implements the subscriber-driven runtime of spec.md §4.4/
// §4.5: one varManager actor per declared stream, fanning its values out to
// subscribers, and a Context that bundles every variable manager behind a
// shared logical clock. Rather than a topology of processor nodes wired by
// channels, this package drives a flat set of per-variable actors — there
// is no downstream topology to wire, only independent streams a
// specification's equations subscribe to.
package async

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/trustmon/lola/value"
)

// VarStage is a variable manager's position in its three-stage lifecycle
// (spec.md §4.4).
type VarStage uint8

const (
	// Gathering is the initial stage: Subscribe returns at once, and the
	// new channel receives nothing until the first tick, so every subscriber
	// can register before the first tick, avoiding dropped values.
	Gathering VarStage = iota
	// Open accepts ticks and still accepts new subscribers.
	Open
	// Closed means the producer is exhausted; new subscriptions are
	// rejected.
	Closed
)

// ErrClosed is returned by Subscribe once a varManager has reached Closed.
var ErrClosed = errors.New("async: variable manager is closed")

// maxWeight emulates a reader-writer lock on top of a single counting
// semaphore: Subscribe acquires one unit of weight for the duration of
// registering a new subscriber (a "reader"), Tick acquires the entire
// weight (a "writer") so it can never run concurrently with, or while,
// a subscription is in flight. This is the Go equivalent of the source's
// permit-counted semaphore plus outstanding-subscription-request counter.
const maxWeight = 1 << 20

type subscriber struct {
	ch  chan value.Value
	ctx context.Context
}

// varManager is the per-stream actor of spec.md §4.4: it owns a
// single-consumer producer stream, fans each value out to every live
// subscriber, and tracks the clock of values it has ticked so far.
type varManager struct {
	name       value.VarName
	bufferSize int

	sem *semaphore.Weighted

	mu          sync.Mutex
	stage       VarStage
	recv        func(ctx context.Context) (value.Value, bool, error)
	subscribers []subscriber
	clock       int
}

// newVarManager wraps recv (pulling one value at a time from the
// variable's single input or computed stream) as a fan-out actor.
func newVarManager(name value.VarName, bufferSize int, recv func(ctx context.Context) (value.Value, bool, error)) *varManager {
	return &varManager{
		name:       name,
		bufferSize: bufferSize,
		sem:        semaphore.NewWeighted(maxWeight),
		recv:       recv,
	}
}

// Subscribe registers a new subscriber channel, parked until the first tick
// if still Gathering. sctx bounds the subscriber's own lifetime: once sctx
// is done, the subscriber is pruned on the next Tick rather than blocking
// it forever.
func (m *varManager) Subscribe(ctx, sctx context.Context) (<-chan value.Value, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stage == Closed {
		return nil, ErrClosed
	}
	ch := make(chan value.Value, m.bufferSize)
	m.subscribers = append(m.subscribers, subscriber{ch: ch, ctx: sctx})
	return ch, nil
}

// Stage reports the variable manager's current lifecycle stage.
func (m *varManager) Stage() VarStage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// Clock reports how many values this variable has ticked so far.
func (m *varManager) Clock() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

// Tick pulls one value from the producer and fans it out to every live
// subscriber, pruning any whose sctx has ended. It reports whether another
// Tick could still produce something: false once the producer is
// exhausted, or once there are no subscribers left in the Closed state.
func (m *varManager) Tick(ctx context.Context) (more bool, err error) {
	if err := m.sem.Acquire(ctx, maxWeight); err != nil {
		return false, err
	}
	defer m.sem.Release(maxWeight)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stage == Closed {
		return len(m.subscribers) > 0, nil
	}
	if m.stage == Gathering {
		m.stage = Open
	}

	v, ok, recvErr := m.recv(ctx)
	if recvErr != nil {
		return false, recvErr
	}
	if !ok {
		m.stage = Closed
		for _, sub := range m.subscribers {
			close(sub.ch)
		}
		m.subscribers = nil
		return false, nil
	}

	live := m.subscribers[:0]
	for _, sub := range m.subscribers {
		select {
		case <-sub.ctx.Done():
			close(sub.ch)
			continue
		default:
		}

		select {
		case sub.ch <- v:
			live = append(live, sub)
		case <-sub.ctx.Done():
			close(sub.ch)
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	m.subscribers = live
	m.clock++

	return m.stage != Closed || len(m.subscribers) > 0, nil
}

// Run calls Tick until it reports no further progress is possible.
func (m *varManager) Run(ctx context.Context) error {
	for {
		more, err := m.Tick(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
