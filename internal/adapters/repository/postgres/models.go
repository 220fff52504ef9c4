package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/ranker/internal/domain/model"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type scoreRow struct {
	bun.BaseModel `bun:"table:user_scores,alias:s"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,notnull"`
	Value         int64     `bun:"value,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type rankRow struct {
	bun.BaseModel `bun:"table:ranks,alias:r"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,unique,notnull"`
	Rank          int       `bun:"rank,notnull"`
	Score         int64     `bun:"score,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

// totalRow is the shape of the grouped totals query.
type totalRow struct {
	UserID int64 `bun:"user_id"`
	Total  int64 `bun:"total"`
}

func (r *userRow) toModel() model.User {
	return model.User{ID: model.UserID(r.ID), Name: r.Name, CreatedAt: r.CreatedAt}
}

func (r *scoreRow) toModel() model.Score {
	return model.Score{ID: r.ID, UserID: model.UserID(r.UserID), Value: r.Value, CreatedAt: r.CreatedAt}
}

func (r *rankRow) toModel() model.Rank {
	return model.Rank{
		ID:        r.ID,
		UserID:    model.UserID(r.UserID),
		Rank:      r.Rank,
		Score:     r.Score,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func rankRowFrom(r *model.Rank) *rankRow {
	return &rankRow{
		ID:        r.ID,
		UserID:    int64(r.UserID),
		Rank:      r.Rank,
		Score:     r.Score,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
