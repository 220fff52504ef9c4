package ranking

import (
	"time"

	"github.com/okian/ranker/pkg/logger"
)

type options struct {
	mode   Mode
	logger logger.Logger
	now    func() time.Time
}

func defaultOptions() options {
	return options{mode: Competition, logger: logger.NewNop(), now: time.Now}
}

// Option configures an OrderMaker or an Updater.
type Option func(*options)

// WithMode selects how tied totals advance the rank counter.
func WithMode(mode Mode) Option {
	return func(o *options) { o.mode = mode }
}

// WithLogger sets the logger used by the Updater.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source used to measure update runs.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
