package seed

import (
	"context"
	"fmt"

	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/ranking"
)

// Verify checks the persisted standings: each score equals the user's live
// total, scores never increase down the table, and ranks follow mode.
// It returns the number of standings checked.
func Verify(ctx context.Context, target Target, mode ranking.Mode) (int, error) {
	standings, err := target.Standings(ctx)
	if err != nil {
		return 0, fmt.Errorf("load standings: %w", err)
	}

	for i, st := range standings {
		total, err := target.TotalScore(ctx, model.UserID(st.UserID))
		if err != nil {
			return i, fmt.Errorf("total of user %d: %w", st.UserID, err)
		}
		if total != st.Score {
			return i, fmt.Errorf("%w: user %d ranked with %d, total is %d", ErrVerification, st.UserID, st.Score, total)
		}

		want := 1
		if i > 0 {
			prev := standings[i-1]
			switch {
			case st.Score > prev.Score:
				return i, fmt.Errorf("%w: position %d out of order", ErrVerification, i)
			case st.Score == prev.Score:
				want = prev.Rank
			case mode == ranking.Dense:
				want = prev.Rank + 1
			default:
				want = i + 1
			}
		}
		if st.Rank != want {
			return i, fmt.Errorf("%w: user %d has rank %d, want %d", ErrVerification, st.UserID, st.Rank, want)
		}
	}
	return len(standings), nil
}
