// Package service provides the ranking service: it owns the store, runs
// rank updates on demand and in the background, and serves read queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ranker/internal/adapters/mq/queue"
	"github.com/okian/ranker/internal/adapters/mq/worker"
	"github.com/okian/ranker/internal/adapters/repository"
	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/ranking"
	"github.com/okian/ranker/internal/domain/scoring"
	"github.com/okian/ranker/internal/domain/types"
	"github.com/okian/ranker/pkg/logger"
)

// Default service configuration constants.
const (
	defaultUpdateInterval  = 30 * time.Second
	defaultUpdateTimeout   = 10 * time.Second
	workerShutdownTimeout  = 15 * time.Second
	reasonManual           = "manual"
	reasonScoreRecorded    = "score_recorded"
	reasonScoresCleared    = "scores_cleared"
	reasonInitialRecompute = "startup"
)

// updaterAdapter routes worker runs through the service so they are
// serialized with UpdateNow and reflected in the stats.
type updaterAdapter struct {
	s *Service
}

func (a updaterAdapter) UpdateAll(ctx context.Context) (ranking.Summary, error) {
	return a.s.UpdateNow(ctx)
}

// Service implements ranking operations on top of a repository.Store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	updater *ranking.Updater
	queue   *queue.InMemoryQueue
	worker  *worker.RankWorker

	// Configuration
	storeName      string
	mode           ranking.Mode
	updateInterval time.Duration
	updateTimeout  time.Duration

	// updateMu serializes recomputes started by UpdateNow and the worker.
	updateMu sync.Mutex
	// lifecycleMu serializes Start and Stop.
	lifecycleMu sync.Mutex

	// State
	started bool
	cancel  context.CancelFunc
	runs    int64
	fails   int64
	last    ranking.Summary
	lastAt  time.Time
	lastErr error

	// Logging
	logger logger.Logger
}

// New constructs a Service. Without WithStore an in-memory store is used.
func New(opts ...Option) *Service {
	s := &Service{
		mode:           ranking.Competition,
		updateInterval: defaultUpdateInterval,
		updateTimeout:  defaultUpdateTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.storeName = "memory"
	}
	s.updater = ranking.NewUpdater(s.store,
		ranking.WithMode(s.mode),
		ranking.WithLogger(s.logger),
	)
	return s
}

// Start runs an initial recompute and then the background worker, which
// recomputes every update interval and on every trigger.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.isStarted() {
		return nil
	}

	s.logger.Info(ctx, "starting ranking service...",
		logger.String("store", s.storeName),
		logger.String("mode", s.mode.String()),
	)

	initCtx, cancelInit := context.WithTimeout(ctx, s.updateTimeout)
	sum, err := s.UpdateNow(initCtx)
	cancelInit()
	if err != nil {
		return fmt.Errorf("initial rank update: %w", err)
	}
	s.logger.Info(ctx, "initial ranks computed",
		logger.String("reason", reasonInitialRecompute),
		logger.Int("ranked", sum.Ranked),
	)

	runCtx, cancel := context.WithCancel(ctx)
	q := queue.NewInMemoryQueue()
	w := worker.NewRankWorker(q, updaterAdapter{s: s},
		worker.WithLogger(s.logger),
		worker.WithInterval(s.updateInterval),
		worker.WithRunTimeout(s.updateTimeout),
	)
	go w.Run(runCtx)

	s.mu.Lock()
	s.cancel = cancel
	s.queue = q
	s.worker = w
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "ranking service started",
		logger.Duration("interval", s.updateInterval),
		logger.Duration("timeout", s.updateTimeout),
	)
	return nil
}

// Stop shuts the background worker down and closes the store. A recompute
// in progress completes first.
func (s *Service) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	ctx := context.Background()
	s.mu.Lock()
	started, q, w, cancelRun := s.started, s.queue, s.worker, s.cancel
	s.started = false
	s.mu.Unlock()

	if started {
		s.logger.Info(ctx, "stopping ranking service...")
		_ = q.Close()
		shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
		if err := w.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
		}
		cancel()
		cancelRun()
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing store", logger.Error(err))
	}
	s.logger.Info(ctx, "ranking service stopped")
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// UpdateNow recomputes every rank synchronously.
func (s *Service) UpdateNow(ctx context.Context) (ranking.Summary, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	sum, err := s.updater.UpdateAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.lastAt = time.Now()
	s.lastErr = err
	if err != nil {
		s.fails++
		return sum, err
	}
	s.last = sum
	return sum, nil
}

// Trigger requests an asynchronous recompute. It reports whether a new
// recompute was queued; false means one is already pending or the service
// is not running.
func (s *Service) Trigger() bool {
	return s.trigger(context.Background(), reasonManual)
}

func (s *Service) trigger(ctx context.Context, reason string) bool {
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()
	if !started {
		return false
	}

	err := q.Enqueue(ctx, queue.Trigger{Reason: reason})
	switch {
	case err == nil:
		return true
	case errors.Is(err, queue.ErrCoalesced):
		s.logger.Debug(ctx, "recompute already pending", logger.String("reason", reason))
	default:
		s.logger.Warn(ctx, "trigger rejected", logger.String("reason", reason), logger.Error(err))
	}
	return false
}

// Standings returns the persisted ranking, best first.
func (s *Service) Standings(ctx context.Context) ([]types.Standing, error) {
	ranks, err := s.store.ListRanks(ctx)
	if err != nil {
		return nil, err
	}
	return types.StandingsFromRanks(ranks), nil
}

// RankOf returns a user's persisted standing or repository.ErrNotFound.
func (s *Service) RankOf(ctx context.Context, userID model.UserID) (types.Standing, error) {
	r, err := s.store.FindRankByUser(ctx, userID)
	if err != nil {
		return types.Standing{}, fmt.Errorf("rank of user %d: %w", userID, err)
	}
	return types.StandingFromRank(r), nil
}

// TotalScore returns the live total of a user's scores, 0 when none.
func (s *Service) TotalScore(ctx context.Context, userID model.UserID) (int64, error) {
	return scoring.NewAggregator(s.store).TotalScore(ctx, userID)
}

// CreateUser registers a user.
func (s *Service) CreateUser(ctx context.Context, name string) (model.User, error) {
	u, err := s.store.CreateUser(ctx, name)
	if err != nil {
		return model.User{}, err
	}
	s.logger.Debug(ctx, "user created", logger.Int64("user_id", int64(u.ID)))
	return u, nil
}

// RecordScore stores a score and requests a recompute.
func (s *Service) RecordScore(ctx context.Context, userID model.UserID, value int64) (model.Score, error) {
	sc, err := s.store.AddScore(ctx, userID, value)
	if err != nil {
		return model.Score{}, fmt.Errorf("record score for user %d: %w", userID, err)
	}
	s.trigger(ctx, reasonScoreRecorded)
	return sc, nil
}

// ClearScores removes a user's scores and requests a recompute, which
// drops the user's rank row.
func (s *Service) ClearScores(ctx context.Context, userID model.UserID) (int, error) {
	n, err := s.store.DeleteScores(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clear scores of user %d: %w", userID, err)
	}
	if n > 0 {
		s.trigger(ctx, reasonScoresCleared)
	}
	return n, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"store":            s.storeName,
		"rankingMode":      s.mode.String(),
		"updateIntervalMs": s.updateInterval.Milliseconds(),
		"updates":          s.runs,
		"updateFailures":   s.fails,
	}
	if !s.lastAt.IsZero() {
		stats["lastUpdateAt"] = s.lastAt.UTC().Format(time.RFC3339)
	}
	if s.last.RunID != uuid.Nil {
		stats["lastRunId"] = s.last.RunID.String()
		stats["rankedUsers"] = s.last.Ranked
	}
	if s.lastErr != nil {
		stats["lastError"] = s.lastErr.Error()
	}
	if s.queue != nil {
		stats["pendingTriggers"] = s.queue.Len()
	}

	return stats
}

// Healthy reports whether the last recompute succeeded.
func (s *Service) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr == nil
}
