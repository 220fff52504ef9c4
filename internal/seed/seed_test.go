package seed_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/ranker/internal/app"
	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/ranking"
	"github.com/okian/ranker/internal/domain/types"
	"github.com/okian/ranker/internal/seed"
	"github.com/okian/ranker/pkg/logger"
)

// staticTarget serves fixed standings and totals.
type staticTarget struct {
	seed.Target
	standings []types.Standing
	totals    map[model.UserID]int64
}

func (t *staticTarget) Standings(context.Context) ([]types.Standing, error) {
	return t.standings, nil
}

func (t *staticTarget) TotalScore(_ context.Context, id model.UserID) (int64, error) {
	return t.totals[id], nil
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		cfg := seed.DefaultConfig()
		cfg.Users = 20
		a := seed.NewGenerator(42).Plans(cfg)
		b := seed.NewGenerator(42).Plans(cfg)

		Convey("They produce the same plans", func() {
			So(a, ShouldResemble, b)
		})

		Convey("Every score is inside the configured range", func() {
			for _, p := range a {
				So(p.Name, ShouldNotBeEmpty)
				So(len(p.Scores), ShouldBeLessThanOrEqualTo, cfg.ScoresPerUser)
				for _, v := range p.Scores {
					So(v, ShouldBeBetweenOrEqual, int64(cfg.MinScore), int64(cfg.MaxScore))
				}
			}
		})
	})

	Convey("A zero seed is replaced", t, func() {
		So(seed.NewGenerator(0).Seed(), ShouldNotEqual, 0)
	})
}

func TestRun(t *testing.T) {
	Convey("Given an in-memory ranking service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.NewNop()))
		cfg := seed.DefaultConfig()
		cfg.Users = 30
		cfg.Workers = 4
		cfg.Seed = 7
		cfg.MaxScore = 5

		Convey("Seeding creates users, ranks them and passes verification", func() {
			stats, err := seed.Run(ctx, svc, cfg, logger.NewNop())
			So(err, ShouldBeNil)
			So(stats.UsersCreated, ShouldEqual, 30)
			So(stats.ScoresSubmitted, ShouldEqual, stats.ScoresGenerated)
			So(stats.ScoresFailed, ShouldEqual, 0)

			standings, err := svc.Standings(ctx)
			So(err, ShouldBeNil)
			So(len(standings), ShouldEqual, stats.StandingsChecked)
		})

		Convey("Dense mode is verified as dense", func() {
			dense := service.New(service.WithLogger(logger.NewNop()), service.WithRankingMode(ranking.Dense))
			cfg.Mode = ranking.Dense
			_, err := seed.Run(ctx, dense, cfg, logger.NewNop())
			So(err, ShouldBeNil)
		})

		Convey("Inconsistent parameters are rejected", func() {
			cfg.MinScore = 10
			cfg.MaxScore = 1
			_, err := seed.Run(ctx, svc, cfg, logger.NewNop())
			So(errors.Is(err, seed.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	Convey("Given competition standings with a tie", t, func() {
		target := &staticTarget{
			standings: []types.Standing{
				{Rank: 1, UserID: 2, Score: 17},
				{Rank: 2, UserID: 1, Score: 6},
				{Rank: 2, UserID: 4, Score: 6},
				{Rank: 4, UserID: 3, Score: 3},
			},
			totals: map[model.UserID]int64{1: 6, 2: 17, 3: 3, 4: 6},
		}

		Convey("Competition verification passes", func() {
			n, err := seed.Verify(ctx, target, ranking.Competition)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 4)
		})

		Convey("Dense verification fails after the tie", func() {
			_, err := seed.Verify(ctx, target, ranking.Dense)
			So(errors.Is(err, seed.ErrVerification), ShouldBeTrue)
		})

		Convey("A stale score fails verification", func() {
			target.totals[3] = 4
			_, err := seed.Verify(ctx, target, ranking.Competition)
			So(errors.Is(err, seed.ErrVerification), ShouldBeTrue)
		})
	})
}
