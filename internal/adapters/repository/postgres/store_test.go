package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/okian/ranker/internal/adapters/repository"
	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/ranking"
)

// startStore runs a disposable Postgres, migrates it and returns a store.
func startStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ranker"),
		tcpostgres.WithUsername("ranker"),
		tcpostgres.WithPassword("ranker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Migrate(ctx)
	require.NoError(t, err)
	return store
}

func seedUsers(t *testing.T, s *Store, scores ...[]int64) []model.UserID {
	t.Helper()
	ctx := context.Background()
	ids := make([]model.UserID, 0, len(scores))
	for _, values := range scores {
		u, err := s.CreateUser(ctx, "user")
		require.NoError(t, err)
		for _, v := range values {
			_, err := s.AddScore(ctx, u.ID, v)
			require.NoError(t, err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}

func TestStore(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()

	ids := seedUsers(t, store, []int64{4, 5, 6}, []int64{4, 5, 6}, []int64{10, 11, 12}, nil)

	t.Run("scores", func(t *testing.T) {
		total, err := store.SumScores(ctx, ids[2])
		require.NoError(t, err)
		require.Equal(t, int64(33), total)

		total, err = store.SumScores(ctx, ids[3])
		require.NoError(t, err)
		require.Zero(t, total)

		scored, err := store.ScoredUserIDs(ctx)
		require.NoError(t, err)
		require.Equal(t, ids[:3], scored)

		totals, err := store.ScoreTotals(ctx)
		require.NoError(t, err)
		require.Equal(t, []model.UserTotal{
			{UserID: ids[0], Total: 15},
			{UserID: ids[1], Total: 15},
			{UserID: ids[2], Total: 33},
		}, totals)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := store.AddScore(ctx, 999999, 1)
		require.ErrorIs(t, err, repository.ErrUnknownUser)
	})

	t.Run("update all is idempotent", func(t *testing.T) {
		u := ranking.NewUpdater(store)
		sum, err := u.UpdateAll(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, sum.Created)

		first, err := store.ListRanks(ctx)
		require.NoError(t, err)
		require.Len(t, first, 3)
		require.Equal(t, ids[2], first[0].UserID)
		require.Equal(t, 1, first[0].Rank)
		require.Equal(t, 2, first[1].Rank)
		require.Equal(t, 2, first[2].Rank)

		sum, err = u.UpdateAll(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, sum.Unchanged)

		second, err := store.ListRanks(ctx)
		require.NoError(t, err)
		require.Len(t, second, 3)
		for i := range first {
			require.Equal(t, first[i].ID, second[i].ID)
			require.Equal(t, first[i].Rank, second[i].Rank)
			require.Equal(t, first[i].Score, second[i].Score)
		}
	})

	t.Run("stale rows are replaced", func(t *testing.T) {
		_, err := store.AddScore(ctx, ids[0], 100)
		require.NoError(t, err)
		_, err = store.DeleteScores(ctx, ids[1])
		require.NoError(t, err)

		sum, err := ranking.NewUpdater(store).UpdateAll(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, sum.Deleted)

		r, err := store.FindRankByUser(ctx, ids[0])
		require.NoError(t, err)
		require.Equal(t, 1, r.Rank)
		require.Equal(t, int64(115), r.Score)

		_, err = store.FindRankByUser(ctx, ids[1])
		require.ErrorIs(t, err, repository.ErrNotFound)

		n, err := store.CountRanks(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})

	t.Run("rollback keeps snapshot", func(t *testing.T) {
		before, err := store.ListRanks(ctx)
		require.NoError(t, err)

		boom := errors.New("boom")
		err = store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if _, err := tx.DeleteRanksExcept(ctx, nil); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		after, err := store.ListRanks(ctx)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("concurrent updates serialize", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ranking.NewUpdater(store).UpdateAll(ctx)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		n, err := store.CountRanks(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})
}
