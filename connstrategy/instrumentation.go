package connstrategy

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// SlowQueryHook is invoked whenever an instrumented query exceeds its
// configured threshold, mirrored from the teacher's
// dialect/sql.SlowQueryHook.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// InstrumentedExecQuerier wraps an ExecQuerier with slow-query logging,
// grounded on the teacher's StatsDriver/DebugDriver wrapping pattern in
// dialect/sql/stats.go generalized from ent's fixed Driver/Tx contract to
// the plain ExecQuerier container depends on.
type InstrumentedExecQuerier struct {
	ExecQuerier
	Threshold time.Duration
	Hook      SlowQueryHook
	Logger    *slog.Logger
}

func (e *InstrumentedExecQuerier) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *InstrumentedExecQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := e.ExecQuerier.ExecContext(ctx, query, args...)
	e.record(ctx, query, args, start, err)
	return res, err
}

func (e *InstrumentedExecQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := e.ExecQuerier.QueryContext(ctx, query, args...)
	e.record(ctx, query, args, start, err)
	return rows, err
}

func (e *InstrumentedExecQuerier) record(ctx context.Context, query string, args []any, start time.Time, err error) {
	duration := time.Since(start)
	if err != nil {
		e.logger().Warn("dbcore: query failed", "query", query, "duration", duration, "error", err)
		return
	}
	threshold := e.Threshold
	if threshold <= 0 {
		threshold = 100 * time.Millisecond
	}
	if duration > threshold {
		if e.Hook != nil {
			e.Hook(ctx, query, args, duration)
			return
		}
		e.logger().Warn("dbcore: slow query", "query", query, "duration", duration)
	}
}

var _ ExecQuerier = (*InstrumentedExecQuerier)(nil)
