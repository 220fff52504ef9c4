package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/ranker/pkg/metrics"
)

// metricsHook reports every query's latency and failures.
type metricsHook struct{}

var _ bun.QueryHook = metricsHook{}

func (metricsHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (metricsHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	op := event.Operation()
	metrics.RecordRepositoryQueryLatency(storeName, op, float64(time.Since(event.StartTime).Microseconds())/1000)
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		metrics.RecordRepositoryError(storeName, op)
	}
}
