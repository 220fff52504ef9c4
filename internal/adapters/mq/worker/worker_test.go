package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/ranker/internal/adapters/mq/queue"
	worker "github.com/okian/ranker/internal/adapters/mq/worker"
	"github.com/okian/ranker/internal/domain/ranking"
	logging "github.com/okian/ranker/pkg/logger"
)

// mockUpdater records runs and reports each one on calls.
type mockUpdater struct {
	mu      sync.Mutex
	err     error
	block   chan struct{}
	runs    int
	calls   chan struct{}
	lastCtx context.Context
}

func newMockUpdater() *mockUpdater {
	return &mockUpdater{calls: make(chan struct{}, 16)}
}

func (m *mockUpdater) UpdateAll(ctx context.Context) (ranking.Summary, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.runs++
	m.lastCtx = ctx
	err := m.err
	m.mu.Unlock()
	m.calls <- struct{}{}
	if err != nil {
		return ranking.Summary{}, err
	}
	return ranking.Summary{RunID: uuid.New(), Ranked: 3}, nil
}

func (m *mockUpdater) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

func waitCall(calls <-chan struct{}) bool {
	select {
	case <-calls:
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestRankWorker(t *testing.T) {
	convey.Convey("Given a rank worker over a trigger queue", t, func() {
		q := queue.NewInMemoryQueue()
		updater := newMockUpdater()

		type result struct {
			reason string
			err    error
		}
		results := make(chan result, 16)
		w := worker.NewRankWorker(q, updater,
			worker.WithName("test-worker"),
			worker.WithLogger(logging.NewNop()),
			worker.WithRunTimeout(time.Second),
			worker.WithResultFunc(func(reason string, _ ranking.Summary, err error) {
				results <- result{reason: reason, err: err}
			}),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a trigger is enqueued", func() {
			convey.So(q.Enqueue(ctx, queue.Trigger{Reason: "score"}), convey.ShouldBeNil)

			convey.Convey("Then the updater runs once with that reason", func() {
				convey.So(waitCall(updater.calls), convey.ShouldBeTrue)
				r := <-results
				convey.So(r.reason, convey.ShouldEqual, "score")
				convey.So(r.err, convey.ShouldBeNil)
				convey.So(updater.runCount(), convey.ShouldEqual, 1)
			})

			convey.Convey("Then the run carries a deadline", func() {
				convey.So(waitCall(updater.calls), convey.ShouldBeTrue)
				updater.mu.Lock()
				_, ok := updater.lastCtx.Deadline()
				updater.mu.Unlock()
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the updater fails", func() {
			updater.err = errors.New("db down")
			convey.So(q.Enqueue(ctx, queue.Trigger{Reason: "manual"}), convey.ShouldBeNil)

			convey.Convey("Then the failure is reported and the worker keeps running", func() {
				r := <-results
				convey.So(r.err, convey.ShouldNotBeNil)
				convey.So(q.Enqueue(ctx, queue.Trigger{Reason: "retry"}), convey.ShouldBeNil)
				convey.So(waitCall(updater.calls), convey.ShouldBeTrue)
				convey.So(waitCall(updater.calls), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it should shutdown gracefully and be idempotent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the queue is closed", func() {
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then Run returns", func() {
				select {
				case <-w.Done():
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestRankWorkerBurst(t *testing.T) {
	convey.Convey("Given a worker blocked inside a run", t, func() {
		q := queue.NewInMemoryQueue()
		updater := newMockUpdater()
		updater.block = make(chan struct{})
		w := worker.NewRankWorker(q, updater, worker.WithLogger(logging.NewNop()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.So(q.Enqueue(ctx, queue.Trigger{Reason: "first"}), convey.ShouldBeNil)
		// wait until the worker picked it up
		deadline := time.Now().Add(time.Second)
		for q.Len() != 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}

		convey.Convey("When a burst of triggers arrives", func() {
			coalesced := 0
			for i := 0; i < 10; i++ {
				if errors.Is(q.Enqueue(ctx, queue.Trigger{Reason: "burst"}), queue.ErrCoalesced) {
					coalesced++
				}
			}
			close(updater.block)

			convey.Convey("Then only one follow-up run happens", func() {
				convey.So(coalesced, convey.ShouldEqual, 9)
				convey.So(waitCall(updater.calls), convey.ShouldBeTrue)
				convey.So(waitCall(updater.calls), convey.ShouldBeTrue)
				time.Sleep(20 * time.Millisecond)
				convey.So(updater.runCount(), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestRankWorkerInterval(t *testing.T) {
	convey.Convey("Given a worker with a short interval", t, func() {
		q := queue.NewInMemoryQueue()
		updater := newMockUpdater()
		w := worker.NewRankWorker(q, updater,
			worker.WithLogger(logging.NewNop()),
			worker.WithInterval(5*time.Millisecond),
		)
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		convey.Convey("Then it recomputes without any trigger", func() {
			convey.So(waitCall(updater.calls), convey.ShouldBeTrue)
			convey.So(waitCall(updater.calls), convey.ShouldBeTrue)
			cancel()
			<-w.Done()
		})
	})
}
