package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(m.namespace, ShouldEqual, "test")
				So(m.subsystem, ShouldEqual, "unit")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
				So(m.constLabels["env"], ShouldEqual, "test")
			})

			Convey("Then collectors are registered under the namespace", func() {
				m.rankUpdates.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_rank_updates_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty option values are passed", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then the defaults are kept", func() {
				So(m.namespace, ShouldEqual, "ranker")
				So(m.subsystem, ShouldEqual, "ranking")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording a rank update", func() {
			before := testutil.ToFloat64(globalManager.rankUpdates)
			RecordRankUpdate(12.5, 1700000000)

			Convey("Then the counter and last-update gauge move", func() {
				So(testutil.ToFloat64(globalManager.rankUpdates), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.lastUpdateUnix), ShouldEqual, 1700000000)
			})
		})

		Convey("When recording written rows", func() {
			created := testutil.ToFloat64(globalManager.rankRowsWritten.WithLabelValues("created"))
			deleted := testutil.ToFloat64(globalManager.rankRowsWritten.WithLabelValues("deleted"))
			RecordRankRowsWritten(3, 1, 2)

			Convey("Then each action label accumulates", func() {
				So(testutil.ToFloat64(globalManager.rankRowsWritten.WithLabelValues("created")), ShouldEqual, created+3)
				So(testutil.ToFloat64(globalManager.rankRowsWritten.WithLabelValues("deleted")), ShouldEqual, deleted+2)
			})
		})

		Convey("When setting the ranked users gauge", func() {
			UpdateRankedUsers(42)

			Convey("Then the gauge holds the value", func() {
				So(testutil.ToFloat64(globalManager.rankedUsers), ShouldEqual, 42)
			})
		})

		Convey("When counting triggers", func() {
			enq := testutil.ToFloat64(globalManager.triggersEnqueued)
			coal := testutil.ToFloat64(globalManager.triggersCoalesced)
			RecordTriggerEnqueued()
			RecordTriggerCoalesced()
			RecordTriggerCoalesced()

			Convey("Then both counters advance independently", func() {
				So(testutil.ToFloat64(globalManager.triggersEnqueued), ShouldEqual, enq+1)
				So(testutil.ToFloat64(globalManager.triggersCoalesced), ShouldEqual, coal+2)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordRankUpdateFailure("persistence")
				RecordRepositoryQueryLatency("memory", "SumScores", 0.3)
				RecordRepositoryError("memory", "SumScores")
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 1.2)
				RecordErrorByComponent("updater", "persistence")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("Then the exported registry exposes ranker metrics", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "ranker_ranking_rank_updates_total")
		})
	})
}
