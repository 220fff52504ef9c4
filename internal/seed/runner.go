package seed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/ranking"
	"github.com/okian/ranker/internal/domain/types"
	"github.com/okian/ranker/pkg/logger"
)

// Target is the ranking service being seeded.
type Target interface {
	CreateUser(ctx context.Context, name string) (model.User, error)
	RecordScore(ctx context.Context, userID model.UserID, value int64) (model.Score, error)
	UpdateNow(ctx context.Context) (ranking.Summary, error)
	Standings(ctx context.Context) ([]types.Standing, error)
	TotalScore(ctx context.Context, userID model.UserID) (int64, error)
}

type submission struct {
	userID model.UserID
	value  int64
}

// Run generates users and scores, submits the scores concurrently, runs one
// rank update and verifies the persisted standings.
func Run(ctx context.Context, target Target, cfg Config, log logger.Logger) (Stats, error) {
	stats := Stats{StartTime: time.Now()}
	if err := cfg.validate(); err != nil {
		return stats, err
	}

	gen := NewGenerator(cfg.Seed)
	plans := gen.Plans(cfg)
	log.Info(ctx, "seeding ranking data",
		logger.Int("users", cfg.Users),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", gen.Seed()))

	var (
		subs   []submission
		scored int
	)
	for _, p := range plans {
		u, err := target.CreateUser(ctx, p.Name)
		if err != nil {
			return stats, fmt.Errorf("create user %q: %w", p.Name, err)
		}
		stats.UsersCreated++
		if len(p.Scores) > 0 {
			scored++
		}
		for _, v := range p.Scores {
			subs = append(subs, submission{userID: u.ID, value: v})
		}
	}
	stats.ScoresGenerated = len(subs)

	submitted, failed := submitScores(ctx, target, cfg.Workers, subs, log)
	stats.ScoresSubmitted = submitted
	stats.ScoresFailed = failed
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	summary, err := target.UpdateNow(ctx)
	if err != nil {
		return stats, fmt.Errorf("update ranks: %w", err)
	}
	log.Info(ctx, "ranks updated",
		logger.String("run_id", summary.RunID.String()),
		logger.Int("ranked", summary.Ranked))

	checked, err := Verify(ctx, target, cfg.Mode)
	stats.StandingsChecked = checked
	if err != nil {
		return stats, err
	}
	if failed == 0 && checked != scored {
		return stats, fmt.Errorf("%w: %d standings for %d scored users", ErrVerification, checked, scored)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "seeding completed",
		logger.Int("users_created", stats.UsersCreated),
		logger.Int("scores_submitted", stats.ScoresSubmitted),
		logger.Int("scores_failed", stats.ScoresFailed),
		logger.Int("standings_checked", stats.StandingsChecked),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

// submitScores records every submission with a pool of workers.
func submitScores(ctx context.Context, target Target, workers int, subs []submission, log logger.Logger) (int, int) {
	var (
		submitted  int64
		failed     int64
		lastReport atomic.Int64
	)

	ch := make(chan submission, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range ch {
				if ctx.Err() != nil {
					continue
				}
				if _, err := target.RecordScore(ctx, sub.userID, sub.value); err != nil {
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "record score failed",
						logger.Int64("user_id", int64(sub.userID)), logger.Error(err))
					continue
				}
				n := atomic.AddInt64(&submitted, 1)

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if time.Duration(now-last) >= progressInterval && lastReport.CompareAndSwap(last, now) {
					log.Debug(ctx, "seeding progress",
						logger.Int64("submitted", n), logger.Int("total", len(subs)))
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case ch <- sub:
			}
		}
	}()

	wg.Wait()
	return int(atomic.LoadInt64(&submitted)), int(atomic.LoadInt64(&failed))
}
