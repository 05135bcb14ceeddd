package streamutil

import (
	"context"
	"sync"
)

// History is an append-only, tick-indexed record of every value a stream
// has produced so far, pruned from the front as retention windows allow.
type History[T any] struct {
	mu     sync.RWMutex
	vals   []T
	offset int // tick index of vals[0]
}

// Append records v as the value produced at the next tick after the last
// appended one.
func (h *History[T]) Append(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vals = append(h.vals, v)
}

// At returns the value recorded for tick, if it is still retained.
func (h *History[T]) At(tick int) (v T, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i := tick - h.offset
	if i < 0 || i >= len(h.vals) {
		return v, false
	}
	return h.vals[i], true
}

// Len returns the number of retained entries.
func (h *History[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.vals)
}

// Prune discards every entry for a tick strictly before keepFrom.
func (h *History[T]) Prune(keepFrom int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	drop := keepFrom - h.offset
	if drop <= 0 {
		return
	}
	if drop >= len(h.vals) {
		h.vals = nil
		h.offset = keepFrom
		return
	}
	h.vals = append([]T(nil), h.vals[drop:]...)
	h.offset = keepFrom
}

// StoreHistory taps in, recording every value into the returned History
// before forwarding it unchanged downstream.
func StoreHistory[T any](ctx context.Context, in Stream[T]) (Stream[T], *History[T]) {
	hist := &History[T]{}
	out, producer := New[T](0)
	go func() {
		defer producer.Close()
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return
			}
			hist.Append(v)
			if producer.Send(ctx, v) != nil {
				return
			}
		}
	}()
	return out, hist
}
