package service

import (
	"time"

	"github.com/okian/ranker/internal/adapters/repository"
	"github.com/okian/ranker/internal/domain/ranking"
	"github.com/okian/ranker/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the backing store. name labels it in stats and logs.
func WithStore(name string, store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.storeName = name
		}
	}
}

// WithUpdateInterval sets the background recompute period. Zero disables
// periodic runs; triggers still work.
func WithUpdateInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.updateInterval = d
		}
	}
}

// WithUpdateTimeout bounds each recompute.
func WithUpdateTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.updateTimeout = d
		}
	}
}

// WithRankingMode selects competition or dense ranking.
func WithRankingMode(mode ranking.Mode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}
