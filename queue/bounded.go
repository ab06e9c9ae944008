// Package queue provides the bounded, drop-on-full queues that join producers to consumers.
package queue

import (
	"context"
	"sync/atomic"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
)

// Bounded is a FIFO queue with a fixed capacity shared by any number of producers.
// Producers never block: an item offered to a full queue is dropped and counted.
type Bounded[T any] struct {
	name    string
	ch      chan T
	dropped atomic.Uint64
}

func NewBounded[T any](name string, capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{name: name, ch: make(chan T, capacity)}
}

// TryPush enqueues v if there is room. producer labels the drop metrics.
func (q *Bounded[T]) TryPush(producer string, v T) bool {
	select {
	case q.ch <- v:
		prom.QueueEnqueued.WithLabelValues(q.name, producer).Inc()
		prom.QueueLength.WithLabelValues(q.name).Set(float64(len(q.ch)))
		return true
	default:
		q.dropped.Add(1)
		prom.QueueDropped.WithLabelValues(q.name, producer).Inc()
		return false
	}
}

// Pop blocks until an item is available or ctx is done.
func (q *Bounded[T]) Pop(ctx context.Context) (T, bool) {
	select {
	case v := <-q.ch:
		prom.QueueLength.WithLabelValues(q.name).Set(float64(len(q.ch)))
		return v, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

func (q *Bounded[T]) Len() int { return len(q.ch) }

func (q *Bounded[T]) Cap() int { return cap(q.ch) }

func (q *Bounded[T]) Name() string { return q.name }

// Dropped is the number of items rejected since the queue was created.
func (q *Bounded[T]) Dropped() uint64 { return q.dropped.Load() }
