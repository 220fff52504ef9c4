// Package queue carries rank recompute requests from producers to the
// rank worker.
//
// The queue is bounded and never blocks: when it is full, a new request is
// folded into the one already pending, since a single recompute serves all
// of them.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/ranker/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1
)

// Trigger is a request to recompute every rank.
type Trigger struct {
	Reason string
	At     time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a trigger. It returns ErrCoalesced when the queue is
	// full and ErrClosed after Close.
	Enqueue(ctx context.Context, t Trigger) error

	// Dequeue returns the channel triggers are delivered on. The channel
	// is closed by Close.
	Dequeue() <-chan Trigger

	// Len returns the number of pending triggers.
	Len() int

	// Close stops accepting triggers.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	triggers chan Trigger
	capacity int
	mu       sync.RWMutex
	closed   bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.triggers = make(chan Trigger, q.capacity)
	return q
}

// Enqueue adds a trigger to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Trigger) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}

	select {
	case q.triggers <- t:
		metrics.RecordTriggerEnqueued()
		return nil
	default:
		metrics.RecordTriggerCoalesced()
		return ErrCoalesced
	}
}

// Dequeue returns the channel that delivers pending triggers.
func (q *InMemoryQueue) Dequeue() <-chan Trigger {
	return q.triggers
}

// Len returns the current number of pending triggers.
func (q *InMemoryQueue) Len() int {
	return len(q.triggers)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.triggers)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
