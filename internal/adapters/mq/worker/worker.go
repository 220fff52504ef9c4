// Package worker runs rank recomputes in the background, on a timer and
// whenever a trigger arrives.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/ranker/internal/adapters/mq/queue"
	"github.com/okian/ranker/internal/domain/ranking"
	"github.com/okian/ranker/pkg/logger"
	"github.com/okian/ranker/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultRunTimeout = 10 * time.Second
	reasonInterval    = "interval"
)

// Updater recomputes and persists every rank.
type Updater interface {
	UpdateAll(ctx context.Context) (ranking.Summary, error)
}

// Queue defines how the worker receives triggers.
type Queue interface {
	Dequeue() <-chan queue.Trigger
}

// ResultFunc observes the outcome of every run.
type ResultFunc func(reason string, sum ranking.Summary, err error)

// RankWorker drains the trigger queue and runs the updater for each
// trigger, and additionally every interval when one is configured.
type RankWorker struct {
	queue    Queue
	updater  Updater
	name     string
	interval time.Duration
	timeout  time.Duration
	onResult ResultFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewRankWorker creates a new worker with configuration options.
func NewRankWorker(q Queue, updater Updater, opts ...Option) *RankWorker {
	w := &RankWorker{
		queue:    q,
		updater:  updater,
		name:     "rank-worker",
		timeout:  defaultRunTimeout,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop and returns when ctx is canceled, Shutdown is
// called or the queue is closed.
func (w *RankWorker) Run(ctx context.Context) {
	defer close(w.done)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	triggers := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case <-tick:
			w.runOnce(ctx, reasonInterval)
		case t, ok := <-triggers:
			if !ok {
				return
			}
			w.runOnce(ctx, t.Reason)
		}
	}
}

func (w *RankWorker) runOnce(ctx context.Context, reason string) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	sum, err := w.updater.UpdateAll(runCtx)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "update_failed")
		w.logger.Error(ctx, "rank update failed",
			logger.String("reason", reason),
			logger.Error(err),
		)
	} else {
		w.logger.Debug(ctx, "rank update finished",
			logger.String("reason", reason),
			logger.String("run_id", sum.RunID.String()),
			logger.Int("ranked", sum.Ranked),
		)
	}
	if w.onResult != nil {
		w.onResult(reason, sum, err)
	}
}

// Shutdown gracefully stops the worker. A run in progress completes first.
func (w *RankWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *RankWorker) Done() <-chan struct{} {
	return w.done
}
