package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var createRankingTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_scores (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		value BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS user_scores_user_id_idx ON user_scores (user_id)`,
	`CREATE TABLE IF NOT EXISTS ranks (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users (id) ON DELETE CASCADE,
		rank INTEGER NOT NULL CHECK (rank >= 1),
		score BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ranks_rank_user_id_idx ON ranks (rank, user_id)`,
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, stmt := range createRankingTables {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create ranking tables: %w", err)
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS ranks, user_scores, users`)
		if err != nil {
			return fmt.Errorf("drop ranking tables: %w", err)
		}
		return nil
	})
}
