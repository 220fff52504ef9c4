package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/ranker/internal/adapters/repository"
	"github.com/okian/ranker/internal/domain/model"
)

// querier implements the score and rank queries over either the pool or
// an open transaction.
type querier struct {
	db  bun.IDB
	now func() time.Time
}

func (q querier) ScoredUserIDs(ctx context.Context) ([]model.UserID, error) {
	var raw []int64
	err := q.db.NewSelect().
		Model((*scoreRow)(nil)).
		ColumnExpr("DISTINCT s.user_id").
		OrderExpr("s.user_id ASC").
		Scan(ctx, &raw)
	if err != nil {
		return nil, repository.Persistence("postgres.ScoredUserIDs", err)
	}
	ids := make([]model.UserID, len(raw))
	for i, id := range raw {
		ids[i] = model.UserID(id)
	}
	return ids, nil
}

func (q querier) SumScores(ctx context.Context, userID model.UserID) (int64, error) {
	var total int64
	err := q.db.NewSelect().
		Model((*scoreRow)(nil)).
		ColumnExpr("COALESCE(SUM(s.value), 0)").
		Where("s.user_id = ?", int64(userID)).
		Scan(ctx, &total)
	if err != nil {
		return 0, repository.Persistence("postgres.SumScores", err)
	}
	return total, nil
}

func (q querier) ScoreTotals(ctx context.Context) ([]model.UserTotal, error) {
	var rows []totalRow
	err := q.db.NewSelect().
		Model((*scoreRow)(nil)).
		ColumnExpr("s.user_id AS user_id").
		ColumnExpr("SUM(s.value) AS total").
		GroupExpr("s.user_id").
		OrderExpr("s.user_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, repository.Persistence("postgres.ScoreTotals", err)
	}
	totals := make([]model.UserTotal, len(rows))
	for i, r := range rows {
		totals[i] = model.UserTotal{UserID: model.UserID(r.UserID), Total: r.Total}
	}
	return totals, nil
}

func (q querier) FindRankByUser(ctx context.Context, userID model.UserID) (model.Rank, error) {
	row := new(rankRow)
	err := q.db.NewSelect().Model(row).Where("r.user_id = ?", int64(userID)).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rank{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Rank{}, repository.Persistence("postgres.FindRankByUser", err)
	}
	return row.toModel(), nil
}

func (q querier) ListRanks(ctx context.Context) ([]model.Rank, error) {
	var rows []rankRow
	err := q.db.NewSelect().Model(&rows).OrderExpr("r.rank ASC, r.user_id ASC").Scan(ctx)
	if err != nil {
		return nil, repository.Persistence("postgres.ListRanks", err)
	}
	ranks := make([]model.Rank, len(rows))
	for i := range rows {
		ranks[i] = rows[i].toModel()
	}
	return ranks, nil
}

func (q querier) CountRanks(ctx context.Context) (int, error) {
	n, err := q.db.NewSelect().Model((*rankRow)(nil)).Count(ctx)
	if err != nil {
		return 0, repository.Persistence("postgres.CountRanks", err)
	}
	return n, nil
}

// pgTx is the transactional view handed to RunInTx callbacks.
type pgTx struct {
	querier
}

var _ repository.Tx = pgTx{}

// CreateRank inserts a rank row. A row inserted concurrently for the same
// user is overwritten instead of failing on the unique constraint.
func (t pgTx) CreateRank(ctx context.Context, r *model.Rank) error {
	now := t.now().UTC()
	row := rankRowFrom(r)
	row.ID = 0
	row.CreatedAt = now
	row.UpdatedAt = now
	_, err := t.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("rank = EXCLUDED.rank").
		Set("score = EXCLUDED.score").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return repository.Persistence("postgres.CreateRank", err)
	}
	*r = row.toModel()
	return nil
}

func (t pgTx) UpdateRank(ctx context.Context, r *model.Rank) error {
	row := rankRowFrom(r)
	row.UpdatedAt = t.now().UTC()
	res, err := t.db.NewUpdate().
		Model(row).
		Column("rank", "score", "updated_at").
		Where("r.id = ?", row.ID).
		Where("r.user_id = ?", row.UserID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return repository.Persistence("postgres.UpdateRank", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return repository.Persistence("postgres.UpdateRank", err)
	} else if n == 0 {
		return fmt.Errorf("rank row %d: %w", r.ID, repository.ErrNotFound)
	}
	*r = row.toModel()
	return nil
}

func (t pgTx) DeleteRanksExcept(ctx context.Context, keep []model.UserID) (int, error) {
	q := t.db.NewDelete().Model((*rankRow)(nil))
	if len(keep) == 0 {
		q = q.Where("TRUE")
	} else {
		ids := make([]int64, len(keep))
		for i, id := range keep {
			ids[i] = int64(id)
		}
		q = q.Where("r.user_id NOT IN (?)", bun.In(ids))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, repository.Persistence("postgres.DeleteRanksExcept", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, repository.Persistence("postgres.DeleteRanksExcept", err)
	}
	return int(n), nil
}
