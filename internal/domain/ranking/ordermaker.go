// Package ranking orders users by total score and persists the resulting
// rank snapshot.
package ranking

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/scoring"
)

// OrderMaker emits users holding scores in descending total order, each
// with its rank.
type OrderMaker struct {
	agg  *scoring.Aggregator
	mode Mode
}

// NewOrderMaker creates an order maker over agg. Only WithMode applies.
func NewOrderMaker(agg *scoring.Aggregator, opts ...Option) *OrderMaker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &OrderMaker{agg: agg, mode: o.mode}
}

// EachRankedUser calls fn once per user owning at least one score, best
// total first. Equal totals share a rank and are emitted by ascending
// user id. An error from fn stops the iteration and is returned as is.
func (m *OrderMaker) EachRankedUser(ctx context.Context, fn func(model.RankedUser) error) error {
	totals, err := m.agg.Totals(ctx)
	if err != nil {
		return fmt.Errorf("rank order: %w", err)
	}
	slices.SortFunc(totals, func(a, b model.UserTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	rank := 0
	for i, t := range totals {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == 0 || t.Total != totals[i-1].Total {
			if m.mode == Dense {
				rank++
			} else {
				rank = i + 1
			}
		}
		if err := fn(model.RankedUser{UserID: t.UserID, Rank: rank, TotalScore: t.Total}); err != nil {
			return err
		}
	}
	return nil
}

// RankedUsers collects EachRankedUser into a slice.
func (m *OrderMaker) RankedUsers(ctx context.Context) ([]model.RankedUser, error) {
	var out []model.RankedUser
	err := m.EachRankedUser(ctx, func(ru model.RankedUser) error {
		out = append(out, ru)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
