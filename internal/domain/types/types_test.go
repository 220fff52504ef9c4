package types_test

import (
	"testing"
	"time"

	"github.com/okian/ranker/internal/domain/model"
	types "github.com/okian/ranker/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStanding(t *testing.T) {
	Convey("Given rank rows", t, func() {
		at := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
		ranks := []model.Rank{
			{ID: 10, UserID: 3, Rank: 1, Score: 33, UpdatedAt: at},
			{ID: 11, UserID: 1, Rank: 2, Score: 15, UpdatedAt: at},
		}

		Convey("When converting a single row", func() {
			s := types.StandingFromRank(ranks[0])

			Convey("Then user, rank, score and time are carried over", func() {
				So(s, ShouldResemble, types.Standing{Rank: 1, UserID: 3, Score: 33, UpdatedAt: at})
			})
		})

		Convey("When converting the list", func() {
			list := types.StandingsFromRanks(ranks)

			Convey("Then order is preserved", func() {
				So(len(list), ShouldEqual, 2)
				So(list[0].UserID, ShouldEqual, 3)
				So(list[1].UserID, ShouldEqual, 1)
			})
		})

		Convey("When converting nothing", func() {
			Convey("Then the result is empty, not nil", func() {
				So(types.StandingsFromRanks(nil), ShouldNotBeNil)
				So(types.StandingsFromRanks(nil), ShouldBeEmpty)
			})
		})
	})
}
