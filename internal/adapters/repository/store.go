// Package repository defines the ranking store contracts, their errors and
// an in-memory implementation.
package repository

import (
	"context"

	"github.com/okian/ranker/internal/domain/model"
)

// Reader is the read side of score and rank storage.
type Reader interface {
	// ScoredUserIDs returns the distinct users owning at least one score,
	// ordered by id.
	ScoredUserIDs(ctx context.Context) ([]model.UserID, error)
	// SumScores returns the sum of a user's score values, 0 when none exist.
	SumScores(ctx context.Context, userID model.UserID) (int64, error)
	// ScoreTotals returns the total of every user owning at least one score.
	ScoreTotals(ctx context.Context) ([]model.UserTotal, error)

	// FindRankByUser returns the rank row of a user or ErrNotFound.
	FindRankByUser(ctx context.Context, userID model.UserID) (model.Rank, error)
	// ListRanks returns every rank row ordered by rank, then user id.
	ListRanks(ctx context.Context) ([]model.Rank, error)
	// CountRanks returns the number of rank rows.
	CountRanks(ctx context.Context) (int, error)
}

// Tx is a unit of work over the store. Writes become visible to other
// readers only when the enclosing RunInTx callback returns nil.
type Tx interface {
	Reader

	// CreateRank inserts a rank row and fills in its ID and timestamps.
	CreateRank(ctx context.Context, r *model.Rank) error
	// UpdateRank overwrites rank and score of an existing row, keyed by ID.
	UpdateRank(ctx context.Context, r *model.Rank) error
	// DeleteRanksExcept removes every rank row whose user is not in keep
	// and returns the number of removed rows.
	DeleteRanksExcept(ctx context.Context, keep []model.UserID) (int, error)
}

// Store provides read/write access to users, scores and ranks.
type Store interface {
	Reader

	// RunInTx runs fn inside a transaction. A non-nil error from fn rolls
	// back every write made through tx.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// CreateUser inserts a user and returns it with its assigned ID.
	CreateUser(ctx context.Context, name string) (model.User, error)
	// AddScore records a score for an existing user, or ErrUnknownUser.
	AddScore(ctx context.Context, userID model.UserID, value int64) (model.Score, error)
	// DeleteScores removes every score of a user and returns how many were
	// removed. The user's rank row is left for the next update to drop.
	DeleteScores(ctx context.Context, userID model.UserID) (int, error)

	// Close releases the store's resources.
	Close() error
}
