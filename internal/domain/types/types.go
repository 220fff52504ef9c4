// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/ranker/internal/domain/model"
)

// Standing is the read shape of one persisted rank row.
type Standing struct {
	Rank      int       `json:"rank"`
	UserID    int64     `json:"user_id"`
	Score     int64     `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StandingFromRank converts a rank row.
func StandingFromRank(r model.Rank) Standing {
	return Standing{Rank: r.Rank, UserID: int64(r.UserID), Score: r.Score, UpdatedAt: r.UpdatedAt}
}

// StandingsFromRanks converts rank rows preserving order.
func StandingsFromRanks(ranks []model.Rank) []Standing {
	out := make([]Standing, len(ranks))
	for i, r := range ranks {
		out[i] = StandingFromRank(r)
	}
	return out
}
