package stream

import "context"

type mapped[S, T any] struct {
	src Stream[S]
	fn  func(S) T
}

// Map derives a stream whose values are fn applied to each value of src.
// fn runs once per source value per subscriber.
func Map[S, T any](src Stream[S], fn func(S) T) Stream[T] {
	return mapped[S, T]{src: src, fn: fn}
}

func (m mapped[S, T]) Subscribe(ctx context.Context) <-chan T {
	in := m.src.Subscribe(ctx)
	out := make(chan T, 1)

	go func() {
		defer close(out)
		for s := range in {
			offer(out, m.fn(s))
		}
	}()

	return out
}

type distinct[T any] struct {
	src  Stream[T]
	same func(a, b T) bool
}

// Distinct derives a stream that drops values equal to the one last forwarded.
// The first value is always forwarded.
func Distinct[T any](src Stream[T], same func(a, b T) bool) Stream[T] {
	return distinct[T]{src: src, same: same}
}

func (d distinct[T]) Subscribe(ctx context.Context) <-chan T {
	in := d.src.Subscribe(ctx)
	out := make(chan T, 1)

	go func() {
		defer close(out)
		var (
			last T
			seen bool
		)
		for v := range in {
			if seen && d.same(last, v) {
				continue
			}
			last, seen = v, true
			offer(out, v)
		}
	}()

	return out
}

// First returns the current value of s.
// It subscribes, takes the replayed value and unsubscribes.
func First[T any](ctx context.Context, s Stream[T]) (T, error) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	select {
	case v, ok := <-s.Subscribe(subCtx):
		if !ok {
			var zero T
			return zero, ctx.Err()
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
