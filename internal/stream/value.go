// Package stream provides current-value streams: publish/subscribe channels that
// hand every new subscriber the most recent value and then each later one.
//
// A [Value] is the only writable stream. [Map] and [Distinct] derive read-only
// streams from any [Stream]; derived streams compute lazily, once per subscriber,
// on that subscriber's own goroutine.
//
// Delivery is latest-wins: a subscriber that falls behind skips intermediate
// values but always receives the most recent one. Publishers never block on
// slow subscribers.
package stream

import (
	"context"
	"sync"
)

// Stream is a read-only current-value stream.
//
// Subscribe returns a channel that first yields the current value, then every
// subsequent one. The channel is closed when ctx is done.
type Stream[T any] interface {
	Subscribe(ctx context.Context) <-chan T
}

// Value holds the latest value of T and broadcasts changes to subscribers.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	nextID uint64
	subs   map[uint64]chan T
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[uint64]chan T),
	}
}

// Publish replaces the current value and offers it to every subscriber.
func (v *Value[T]) Publish(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur = val
	for _, ch := range v.subs {
		offer(ch, val)
	}
}

// Update applies fn to the current value and publishes the result as one
// step, so concurrent updates never interleave a read with another's write.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur = fn(v.cur)
	for _, ch := range v.subs {
		offer(ch, v.cur)
	}
	return v.cur
}

// Subscribe implements Stream.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	ch <- v.cur
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, id)
		close(ch)
		v.mu.Unlock()
	}()

	return ch
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// offer puts val into a one-slot channel, evicting a stale value if the
// subscriber has not consumed it yet. Callers must hold the owning lock.
func offer[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
