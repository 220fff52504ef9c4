package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ranker/internal/adapters/repository"
	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/scoring"
	"github.com/okian/ranker/pkg/logger"
	"github.com/okian/ranker/pkg/metrics"
)

// Summary describes one UpdateAll run.
type Summary struct {
	RunID     uuid.UUID
	Ranked    int
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Duration  time.Duration
}

type upsertAction int

const (
	actionUnchanged upsertAction = iota
	actionCreated
	actionUpdated
)

// Updater recomputes every rank and persists the snapshot atomically.
type Updater struct {
	store  repository.Store
	mode   Mode
	logger logger.Logger
	now    func() time.Time
}

// NewUpdater creates an updater writing to store.
func NewUpdater(store repository.Store, opts ...Option) *Updater {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Updater{
		store:  store,
		mode:   o.mode,
		logger: o.logger.Named("updater"),
		now:    o.now,
	}
}

// Mode returns the ranking mode the updater applies.
func (u *Updater) Mode() Mode { return u.mode }

// UpdateAll recomputes every user's rank inside one transaction. Existing
// rank rows are updated in place, missing ones created, and rows of users
// without scores deleted. On error nothing is committed and the returned
// error matches ErrUpdateFailed as well as its cause.
func (u *Updater) UpdateAll(ctx context.Context) (Summary, error) {
	start := u.now()
	runID := uuid.New()
	log := u.logger.With(logger.String("run_id", runID.String()))

	var sum Summary
	err := u.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		s, err := u.apply(ctx, tx)
		if err != nil {
			return err
		}
		sum = s
		return nil
	})
	sum.RunID = runID
	sum.Duration = u.now().Sub(start)

	if err != nil {
		metrics.RecordRankUpdateFailure(failureCause(err))
		metrics.RecordErrorByComponent("updater", failureCause(err))
		log.Error(ctx, "rank update rolled back", logger.Error(err), logger.Duration("took", sum.Duration))
		return Summary{RunID: runID, Duration: sum.Duration}, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	metrics.RecordRankUpdate(float64(sum.Duration.Microseconds())/1000, float64(u.now().Unix()))
	metrics.RecordRankRowsWritten(sum.Created, sum.Updated, sum.Deleted)
	metrics.UpdateRankedUsers(sum.Ranked)
	log.Info(ctx, "ranks updated",
		logger.String("mode", u.mode.String()),
		logger.Int("ranked", sum.Ranked),
		logger.Int("created", sum.Created),
		logger.Int("updated", sum.Updated),
		logger.Int("unchanged", sum.Unchanged),
		logger.Int("deleted", sum.Deleted),
		logger.Duration("took", sum.Duration),
	)
	return sum, nil
}

func (u *Updater) apply(ctx context.Context, tx repository.Tx) (Summary, error) {
	var sum Summary
	maker := NewOrderMaker(scoring.NewAggregator(tx), WithMode(u.mode))

	keep := make([]model.UserID, 0)
	err := maker.EachRankedUser(ctx, func(ru model.RankedUser) error {
		action, err := upsertRank(ctx, tx, ru)
		if err != nil {
			return err
		}
		keep = append(keep, ru.UserID)
		sum.Ranked++
		switch action {
		case actionCreated:
			sum.Created++
		case actionUpdated:
			sum.Updated++
		default:
			sum.Unchanged++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	deleted, err := tx.DeleteRanksExcept(ctx, keep)
	if err != nil {
		return Summary{}, fmt.Errorf("delete stale ranks: %w", err)
	}
	sum.Deleted = deleted
	return sum, nil
}

// upsertRank finds the user's rank row and creates, updates or keeps it.
func upsertRank(ctx context.Context, tx repository.Tx, ru model.RankedUser) (upsertAction, error) {
	existing, err := tx.FindRankByUser(ctx, ru.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		r := &model.Rank{UserID: ru.UserID, Rank: ru.Rank, Score: ru.TotalScore}
		if err := tx.CreateRank(ctx, r); err != nil {
			return actionUnchanged, fmt.Errorf("create rank for user %d: %w", ru.UserID, err)
		}
		return actionCreated, nil
	case err != nil:
		return actionUnchanged, fmt.Errorf("find rank for user %d: %w", ru.UserID, err)
	case existing.Rank == ru.Rank && existing.Score == ru.TotalScore:
		return actionUnchanged, nil
	}

	existing.Rank = ru.Rank
	existing.Score = ru.TotalScore
	if err := tx.UpdateRank(ctx, &existing); err != nil {
		return actionUnchanged, fmt.Errorf("update rank for user %d: %w", ru.UserID, err)
	}
	return actionUpdated, nil
}

func failureCause(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, repository.ErrPersistence):
		return "persistence"
	default:
		return "other"
	}
}
