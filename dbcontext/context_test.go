package dbcontext

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dberr"
	"github.com/syssam/dbcore/txcontext"
)

// newMockedContext registers a fresh sqlmock DSN and builds a Context
// against it. ProviderName deliberately isn't one of config.go's
// recognized keys, so resolveDriverName falls back to the mock driver
// name itself (the dialect variant under test doesn't matter for these
// composition-root-level behaviors).
func newMockedContext(t *testing.T, dsn string, opts ...Option) *Context {
	t.Helper()
	_, err := sqlmock.NewWithDSN(dsn, sqlmock.MonitorPingsOption(false))
	require.NoError(t, err)

	cfg, err := NewConfig(dsn, "sqlmock", opts...)
	require.NoError(t, err)

	dc, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { dc.Close() })
	return dc
}

func TestStandardModeTwoWritersOpenConcurrently(t *testing.T) {
	dc := newMockedContext(t, "dbcontext-standard-two-writers", WithDbMode(connstrategy.Standard))

	ctx := context.Background()
	tc1, err := dc.Acquire(ctx, connstrategy.Write)
	require.NoError(t, err)
	tc2, err := dc.Acquire(ctx, connstrategy.Write)
	require.NoError(t, err)

	assert.Equal(t, int64(2), dc.Stats().NumberOfOpenConnections())
	assert.Equal(t, int64(2), dc.Stats().MaxNumberOfConnections())

	require.NoError(t, dc.Release(tc1))
	require.NoError(t, dc.Release(tc2))
	assert.Equal(t, int64(0), dc.Stats().NumberOfOpenConnections())
	assert.Equal(t, int64(2), dc.Stats().MaxNumberOfConnections())
}

func TestReadOnlyModeRejectsWriteAcquire(t *testing.T) {
	dc := newMockedContext(t, "dbcontext-readonly-rejects-write",
		WithDbMode(connstrategy.Standard), WithReadWriteMode(ReadOnly))

	_, err := dc.Acquire(context.Background(), connstrategy.Write)
	assert.ErrorIs(t, err, dberr.ErrReadOnlyContext)
}

func TestBeginTransactionRejectsNestedAttempt(t *testing.T) {
	dc := newMockedContext(t, "dbcontext-nested-tx-rejected", WithDbMode(connstrategy.Standard))

	ctx := context.Background()
	txc, err := dc.BeginTransaction(ctx, nil)
	require.NoError(t, err)
	defer txc.Dispose(ctx)

	_, err = dc.BeginTransaction(ctx, nil)
	assert.ErrorIs(t, err, dberr.ErrNestedTransactionRejected)
}

func TestBeginTransactionAllowedAgainAfterCommit(t *testing.T) {
	dc := newMockedContext(t, "dbcontext-tx-reusable-after-commit", WithDbMode(connstrategy.Standard))

	ctx := context.Background()
	txc, err := dc.BeginTransaction(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, txc.Commit(ctx))

	txc2, err := dc.BeginTransaction(ctx, nil)
	require.NoError(t, err)
	assert.NoError(t, txc2.Rollback(ctx))
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	dc := newMockedContext(t, "dbcontext-with-transaction-error", WithDbMode(connstrategy.Standard))

	boom := assert.AnError
	err := dc.WithTransaction(context.Background(), nil, func(_ *txcontext.TransactionContext) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	txc, err := dc.BeginTransaction(context.Background(), nil)
	require.NoError(t, err, "the failed WithTransaction call must have released the nested-transaction guard")
	assert.NoError(t, txc.Rollback(context.Background()))
}
