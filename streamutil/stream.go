// Package streamutil provides a generic bounded-channel stream type plus a
// handful of combinators over it: Map, Zip, Take, FromSlice, Collect. No
// other package in this module imports it; runtime/async and semantics use
// their own channels and combinators.
package streamutil

import "context"

// Stream is an unbounded, continuously updating sequence of values of type
// T, backed by a bounded channel. It is a single producer-to-consumer pipe,
// not a whole topology of nodes; fan-out across subscribers is
// runtime/async.varManager's job, not this package's.
type Stream[T any] struct {
	ch <-chan T
}

// Of wraps an existing receive-only channel as a Stream.
func Of[T any](ch <-chan T) Stream[T] { return Stream[T]{ch: ch} }

// Chan exposes the underlying channel for select statements that need to
// combine a Stream with other events (cancellation, timers).
func (s Stream[T]) Chan() <-chan T { return s.ch }

// Recv blocks until a value is available, ctx is cancelled, or the stream is
// exhausted. ok is false exactly when the stream produced no more values.
func (s Stream[T]) Recv(ctx context.Context) (v T, ok bool, err error) {
	select {
	case <-ctx.Done():
		return v, false, ctx.Err()
	case v, ok = <-s.ch:
		return v, ok, nil
	}
}

// Producer is the writable counterpart returned alongside a Stream by New,
// letting a source push values and signal completion by closing.
type Producer[T any] struct {
	ch chan<- T
}

// Send blocks until the value is accepted, the buffer has room, or ctx is
// cancelled.
func (p Producer[T]) Send(ctx context.Context, v T) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.ch <- v:
		return nil
	}
}

// Close signals that no further values will be produced.
func (p Producer[T]) Close() { close(p.ch) }

// New returns a Stream and its Producer, connected by a channel of the given
// buffer size.
func New[T any](buffer int) (Stream[T], Producer[T]) {
	ch := make(chan T, buffer)
	return Stream[T]{ch: ch}, Producer[T]{ch: ch}
}

// FromSlice returns a Stream that yields each element of items in order,
// then closes. Used throughout tests in place of a real input adapter.
func FromSlice[T any](ctx context.Context, items []T) Stream[T] {
	out, in := New[T](len(items))
	go func() {
		defer in.Close()
		for _, v := range items {
			if in.Send(ctx, v) != nil {
				return
			}
		}
	}()
	return out
}

// Collect drains in to a slice, stopping early if ctx is cancelled.
func Collect[T any](ctx context.Context, in Stream[T]) ([]T, error) {
	var out []T
	for {
		v, ok, err := in.Recv(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Map applies fn to every value of in, producing a new Stream. The mapping
// goroutine exits (and closes the output) when in is exhausted or ctx is
// cancelled.
func Map[T, U any](ctx context.Context, in Stream[T], fn func(T) U) Stream[U] {
	out, producer := New[U](0)
	go func() {
		defer producer.Close()
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return
			}
			if producer.Send(ctx, fn(v)) != nil {
				return
			}
		}
	}()
	return out
}

// Pair is the element type Zip produces.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Zip pairs values from a and b positionally, stopping as soon as either
// stream is exhausted.
func Zip[A, B any](ctx context.Context, a Stream[A], b Stream[B]) Stream[Pair[A, B]] {
	out, producer := New[Pair[A, B]](0)
	go func() {
		defer producer.Close()
		for {
			av, aok, aerr := a.Recv(ctx)
			if aerr != nil || !aok {
				return
			}
			bv, bok, berr := b.Recv(ctx)
			if berr != nil || !bok {
				return
			}
			if producer.Send(ctx, Pair[A, B]{First: av, Second: bv}) != nil {
				return
			}
		}
	}()
	return out
}

// Take yields at most n values from in, then closes without draining the
// rest of in.
func Take[T any](ctx context.Context, in Stream[T], n int) Stream[T] {
	out, producer := New[T](0)
	go func() {
		defer producer.Close()
		for i := 0; i < n; i++ {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return
			}
			if producer.Send(ctx, v) != nil {
				return
			}
		}
	}()
	return out
}

// DropGuard wraps in with an onDrop callback invoked exactly once, when the
// stream is exhausted or ctx is cancelled — the same "run cleanup when the
// last reference goes away" shape as tokio_util's DropGuard/CancellationToken
// pair, expressed with a deferred callback since Go has no destructors.
func DropGuard[T any](ctx context.Context, in Stream[T], onDrop func()) Stream[T] {
	out, producer := New[T](0)
	go func() {
		defer onDrop()
		defer producer.Close()
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return
			}
			if producer.Send(ctx, v) != nil {
				return
			}
		}
	}()
	return out
}
