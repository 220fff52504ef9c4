// Package scoring aggregates raw score records into per-user totals.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/ranker/internal/domain/model"
)

// ScoreReader is the read side of score storage the aggregator needs.
type ScoreReader interface {
	// ScoredUserIDs returns the distinct users owning at least one score.
	ScoredUserIDs(ctx context.Context) ([]model.UserID, error)
	// SumScores returns the sum of a user's score values, 0 when none exist.
	SumScores(ctx context.Context, userID model.UserID) (int64, error)
}

// totalsReader is implemented by readers able to compute every total in
// a single query.
type totalsReader interface {
	ScoreTotals(ctx context.Context) ([]model.UserTotal, error)
}

// Aggregator computes total scores from a ScoreReader.
type Aggregator struct {
	reader ScoreReader
}

// NewAggregator creates an aggregator over reader.
func NewAggregator(reader ScoreReader) *Aggregator {
	return &Aggregator{reader: reader}
}

// TotalScore returns the sum of the user's score values. A user without
// scores has a total of 0; only storage failures produce an error.
func (a *Aggregator) TotalScore(ctx context.Context, userID model.UserID) (int64, error) {
	total, err := a.reader.SumScores(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("total score for user %d: %w", userID, err)
	}
	return total, nil
}

// Totals returns one entry per user owning at least one score. Order is
// unspecified.
func (a *Aggregator) Totals(ctx context.Context) ([]model.UserTotal, error) {
	if bulk, ok := a.reader.(totalsReader); ok {
		totals, err := bulk.ScoreTotals(ctx)
		if err != nil {
			return nil, fmt.Errorf("score totals: %w", err)
		}
		return totals, nil
	}

	ids, err := a.reader.ScoredUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("scored users: %w", err)
	}
	totals := make([]model.UserTotal, 0, len(ids))
	for _, id := range ids {
		total, err := a.TotalScore(ctx, id)
		if err != nil {
			return nil, err
		}
		totals = append(totals, model.UserTotal{UserID: id, Total: total})
	}
	return totals, nil
}
