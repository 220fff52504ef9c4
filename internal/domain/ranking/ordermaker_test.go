package ranking

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ranker/internal/domain/model"
	"github.com/okian/ranker/internal/domain/scoring"
)

// totalsReader serves fixed totals, one score record per user.
type totalsReader struct {
	totals map[model.UserID]int64
	err    error
}

func (r *totalsReader) ScoredUserIDs(ctx context.Context) ([]model.UserID, error) {
	if r.err != nil {
		return nil, r.err
	}
	ids := make([]model.UserID, 0, len(r.totals))
	for id := range r.totals {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *totalsReader) SumScores(ctx context.Context, id model.UserID) (int64, error) {
	return r.totals[id], r.err
}

func makerFor(totals map[model.UserID]int64, opts ...Option) *OrderMaker {
	return NewOrderMaker(scoring.NewAggregator(&totalsReader{totals: totals}), opts...)
}

func TestOrderMaker(t *testing.T) {
	ctx := context.Background()

	Convey("Given users with distinct totals 6, 17 and 3", t, func() {
		m := makerFor(map[model.UserID]int64{1: 6, 2: 17, 3: 3})

		Convey("When ranking", func() {
			got, err := m.RankedUsers(ctx)

			Convey("Then ranks run 1..N by descending total", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []model.RankedUser{
					{UserID: 2, Rank: 1, TotalScore: 17},
					{UserID: 1, Rank: 2, TotalScore: 6},
					{UserID: 3, Rank: 3, TotalScore: 3},
				})
			})
		})
	})

	Convey("Given totals 17, 6, 6 and 3", t, func() {
		totals := map[model.UserID]int64{4: 3, 3: 6, 2: 6, 1: 17}

		Convey("When ranking in competition mode", func() {
			got, err := makerFor(totals).RankedUsers(ctx)

			Convey("Then the rank after the tie is skipped", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []model.RankedUser{
					{UserID: 1, Rank: 1, TotalScore: 17},
					{UserID: 2, Rank: 2, TotalScore: 6},
					{UserID: 3, Rank: 2, TotalScore: 6},
					{UserID: 4, Rank: 4, TotalScore: 3},
				})
			})
		})

		Convey("When ranking in dense mode", func() {
			got, err := makerFor(totals, WithMode(Dense)).RankedUsers(ctx)

			Convey("Then ranks stay consecutive", func() {
				So(err, ShouldBeNil)
				ranks := make([]int, len(got))
				for i, ru := range got {
					ranks[i] = ru.Rank
				}
				So(ranks, ShouldResemble, []int{1, 2, 2, 3})
			})
		})
	})

	Convey("Given every user tied, including zero totals", t, func() {
		got, err := makerFor(map[model.UserID]int64{9: 0, 8: 0, 7: 0}).RankedUsers(ctx)

		Convey("Then all share rank 1 in ascending id order", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []model.RankedUser{
				{UserID: 7, Rank: 1}, {UserID: 8, Rank: 1}, {UserID: 9, Rank: 1},
			})
		})
	})

	Convey("Given no scored users", t, func() {
		calls := 0
		err := makerFor(map[model.UserID]int64{}).EachRankedUser(ctx, func(model.RankedUser) error {
			calls++
			return nil
		})

		Convey("Then the callback is never invoked", func() {
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 0)
		})
	})

	Convey("Given a callback that fails on the second user", t, func() {
		stop := errors.New("stop")
		seen := 0
		err := makerFor(map[model.UserID]int64{1: 3, 2: 2, 3: 1}).EachRankedUser(ctx, func(model.RankedUser) error {
			seen++
			if seen == 2 {
				return stop
			}
			return nil
		})

		Convey("Then iteration stops with that exact error", func() {
			So(err, ShouldEqual, stop)
			So(seen, ShouldEqual, 2)
		})
	})

	Convey("Given a failing reader", t, func() {
		boom := errors.New("boom")
		m := NewOrderMaker(scoring.NewAggregator(&totalsReader{err: boom}))
		_, err := m.RankedUsers(ctx)

		Convey("Then the storage error is wrapped", func() {
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given mode names", t, func() {
		cases := map[string]Mode{"": Competition, "competition": Competition, " Dense ": Dense}
		for in, want := range cases {
			got, err := ParseMode(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := ParseMode("olympic")
		So(errors.Is(err, ErrInvalidMode), ShouldBeTrue)
		So(Dense.String(), ShouldEqual, "dense")
	})
}
