package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dberr"
)

// acquire asks the provider for a connection on c's channel, enforcing
// the read/write invariants before any query ever reaches the wire:
// write operations against a ReadOnly-mode context fail with
// dberr.ErrReadOnlyContext, and write operations never resolve to a
// Read-channel connection (the provider itself guarantees that by
// construction — SingleWriter's Get(Write) always returns the
// persistent writer — so this is a belt-and-braces channel check).
func (c *Container) acquire(ctx context.Context) (*connstrategy.TrackedConnection, error) {
	return c.acquireOn(ctx, c.channel)
}

// acquireOn is acquire for an explicit channel, letting
// ExecuteScalarWrite use Write whatever the container's own channel is.
func (c *Container) acquireOn(ctx context.Context, channel connstrategy.Channel) (*connstrategy.TrackedConnection, error) {
	tc, err := c.provider.Acquire(ctx, channel)
	if err != nil {
		return nil, err
	}
	if channel == connstrategy.Write && tc.ReadOnly {
		c.provider.Release(tc)
		return nil, dberr.ErrReadOnlyContext
	}
	return tc, nil
}

// ExecuteNonQuery runs the container's SQL for its side effects and
// returns the number of rows affected when the driver reports it; 0 is
// returned, not an error, when the driver doesn't support RowsAffected.
func ExecuteNonQuery(ctx context.Context, c *Container) (int64, error) {
	tc, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer c.provider.Release(tc)

	res, err := tc.ExecContext(ctx, c.SQL(), c.args()...)
	if err != nil {
		return 0, fmt.Errorf("container: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// ExecuteScalar runs the container's SQL and scans the first column of
// the first row into T. A SQL NULL fails with dberr.ErrUnexpectedNull
// unless *T is a sql.Scanner, in which case T's zero value is returned;
// callers expecting a nullable result should read T as database/sql's
// generic sql.Null[T] instead of a bare T.
func ExecuteScalar[T any](ctx context.Context, c *Container) (T, error) {
	return executeScalar[T](ctx, c, c.channel)
}

func executeScalar[T any](ctx context.Context, c *Container, channel connstrategy.Channel) (T, error) {
	var zero T
	tc, err := c.acquireOn(ctx, channel)
	if err != nil {
		return zero, err
	}
	defer c.provider.Release(tc)

	rows, err := tc.QueryContext(ctx, c.SQL(), c.args()...)
	if err != nil {
		return zero, fmt.Errorf("container: scalar: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, fmt.Errorf("container: scalar: %w", err)
		}
		return zero, sql.ErrNoRows
	}
	var holder sql.Null[T]
	if err := rows.Scan(&holder); err != nil {
		return zero, fmt.Errorf("container: scalar: %w", err)
	}
	if !holder.Valid {
		if _, nullable := any(&zero).(sql.Scanner); nullable {
			return zero, nil
		}
		return zero, dberr.ErrUnexpectedNull
	}
	return holder.V, nil
}

// ExecuteScalarWrite is ExecuteScalar issued through the write channel
// (e.g. a RETURNING/OUTPUT clause on an INSERT/UPDATE). It is a distinct
// entry point, not an option on ExecuteScalar, so callers can't
// accidentally route a write-shaped query through the read path.
func ExecuteScalarWrite[T any](ctx context.Context, c *Container) (T, error) {
	return executeScalar[T](ctx, c, connstrategy.Write)
}

// ExecuteReader runs the container's SQL and returns the resulting
// *sql.Rows for the caller to scan, plus a cleanup function that must be
// called instead of Rows.Close directly so the connection lease is
// released once the reader is fully drained (or abandoned).
func ExecuteReader(ctx context.Context, c *Container) (*sql.Rows, func() error, error) {
	tc, err := c.acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	rows, err := tc.QueryContext(ctx, c.SQL(), c.args()...)
	if err != nil {
		c.provider.Release(tc)
		return nil, nil, fmt.Errorf("container: reader: %w", err)
	}
	cleanup := func() error {
		closeErr := rows.Close()
		relErr := c.provider.Release(tc)
		if closeErr != nil {
			return closeErr
		}
		return relErr
	}
	return rows, cleanup, nil
}

// ExecuteReaderSingleRow runs the container's SQL and scans exactly one
// row via scan. sql.ErrNoRows propagates unchanged so callers can
// distinguish "no row" from a real failure.
func ExecuteReaderSingleRow(ctx context.Context, c *Container, scan func(*sql.Rows) error) error {
	rows, cleanup, err := ExecuteReader(ctx, c)
	if err != nil {
		return err
	}
	defer cleanup()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("container: reader: %w", err)
		}
		return sql.ErrNoRows
	}
	return scan(rows)
}

// args returns the bound parameter values in bind order, ready to pass
// to database/sql's variadic Exec/Query.
func (c *Container) args() []any {
	params := c.Parameters()
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p.Value
	}
	return out
}
