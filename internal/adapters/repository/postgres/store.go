// Package postgres implements the ranking store on PostgreSQL using bun.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/okian/ranker/internal/adapters/repository"
	"github.com/okian/ranker/internal/adapters/repository/postgres/migrations"
	"github.com/okian/ranker/internal/domain/model"
)

const (
	storeName = "postgres"

	// defaultLockKey serializes rank updates across processes sharing a database.
	defaultLockKey int64 = 0x72616e6b // "rank"

	pgForeignKeyViolation = "23503"
)

// Store is a repository.Store backed by PostgreSQL.
type Store struct {
	querier
	db      *bun.DB
	lockKey int64
}

var _ repository.Store = (*Store)(nil)

// Open connects to dsn with pgdriver and verifies the connection.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, repository.Persistence("postgres.Open", fmt.Errorf("ping database: %w", err))
	}
	return New(bun.NewDB(sqldb, pgdialect.New()), opts...), nil
}

// New wraps an existing bun database.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		querier: querier{db: db, now: time.Now},
		db:      db,
		lockKey: defaultLockKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	db.AddQueryHook(metricsHook{})
	return s
}

// DB exposes the underlying bun database.
func (s *Store) DB() *bun.DB { return s.db }

// Migrator returns a bun migrator over the ranking schema.
func (s *Store) Migrator() *migrate.Migrator {
	return migrate.NewMigrator(s.db, migrations.Migrations)
}

// Migrate creates the migration tables if needed and applies every pending
// migration under the migration lock.
func (s *Store) Migrate(ctx context.Context) (*migrate.MigrationGroup, error) {
	m := s.Migrator()
	if err := m.Init(ctx); err != nil {
		return nil, repository.Persistence("postgres.Migrate", fmt.Errorf("init: %w", err))
	}
	if err := m.Lock(ctx); err != nil {
		return nil, repository.Persistence("postgres.Migrate", fmt.Errorf("lock: %w", err))
	}
	defer m.Unlock(ctx) //nolint:errcheck // best effort

	group, err := m.Migrate(ctx)
	if err != nil {
		return nil, repository.Persistence("postgres.Migrate", err)
	}
	return group, nil
}

// RunInTx runs fn in a transaction holding a transaction-scoped advisory
// lock, so concurrent updaters never interleave. The isolation level is
// READ COMMITTED: a REPEATABLE READ snapshot would be taken before the lock
// is granted and miss the rows committed by the previous holder.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	var fnErr error
	err := s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", s.lockKey); err != nil {
			return repository.Persistence("postgres.RunInTx", fmt.Errorf("advisory lock: %w", err))
		}
		fnErr = fn(ctx, pgTx{querier{db: tx, now: s.now}})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return repository.Persistence("postgres.RunInTx", err)
	}
	return err
}

// CreateUser implements repository.Store.CreateUser.
func (s *Store) CreateUser(ctx context.Context, name string) (model.User, error) {
	row := &userRow{Name: name, CreatedAt: s.now().UTC()}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return model.User{}, repository.Persistence("postgres.CreateUser", err)
	}
	return row.toModel(), nil
}

// AddScore implements repository.Store.AddScore.
func (s *Store) AddScore(ctx context.Context, userID model.UserID, value int64) (model.Score, error) {
	exists, err := s.db.NewSelect().Model((*userRow)(nil)).Where("u.id = ?", int64(userID)).Exists(ctx)
	if err != nil {
		return model.Score{}, repository.Persistence("postgres.AddScore", err)
	}
	if !exists {
		return model.Score{}, repository.ErrUnknownUser
	}

	row := &scoreRow{UserID: int64(userID), Value: value, CreatedAt: s.now().UTC()}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		// user deleted between the check and the insert
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == pgForeignKeyViolation {
			return model.Score{}, repository.ErrUnknownUser
		}
		return model.Score{}, repository.Persistence("postgres.AddScore", err)
	}
	return row.toModel(), nil
}

// DeleteScores implements repository.Store.DeleteScores.
func (s *Store) DeleteScores(ctx context.Context, userID model.UserID) (int, error) {
	res, err := s.db.NewDelete().Model((*scoreRow)(nil)).Where("s.user_id = ?", int64(userID)).Exec(ctx)
	if err != nil {
		return 0, repository.Persistence("postgres.DeleteScores", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, repository.Persistence("postgres.DeleteScores", err)
	}
	return int(n), nil
}

// Close implements repository.Store.Close.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return repository.Persistence("postgres.Close", err)
	}
	return nil
}
