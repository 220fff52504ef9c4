package worker

import (
	"time"

	"github.com/okian/ranker/pkg/logger"
)

// Option applies a configuration option to the RankWorker.
type Option func(*RankWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *RankWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *RankWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithInterval enables a periodic recompute. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(w *RankWorker) {
		if d >= 0 {
			w.interval = d
		}
	}
}

// WithRunTimeout bounds every single run.
func WithRunTimeout(d time.Duration) Option {
	return func(w *RankWorker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithResultFunc registers a callback invoked after every run.
func WithResultFunc(fn ResultFunc) Option {
	return func(w *RankWorker) {
		w.onResult = fn
	}
}
