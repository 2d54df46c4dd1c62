package connstrategy

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcore/dialect"
)

func newSQLiteDialectForTest() *dialect.Descriptor {
	return dialect.New(dialect.SQLite)
}

func TestStandardStrategyOpensAndReleases(t *testing.T) {
	dsn := "standard-strategy-test"
	mock, err := sqlmock.NewWithDSN(dsn, sqlmock.MonitorPingsOption(false))
	require.NoError(t, err)
	mock.ExpectExec("PRAGMA").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("PRAGMA").WillReturnResult(sqlmock.NewResult(0, 0))

	strat := newStandardStrategy(Config{
		Mode:             Standard,
		ConnectionString: dsn,
		DriverName:       "sqlmock",
		Dialect:          newSQLiteDialectForTest(),
	})
	defer strat.Close()

	ctx := context.Background()
	c1, err := strat.Get(ctx, Write)
	require.NoError(t, err)
	require.Equal(t, int64(1), strat.Stats().NumberOfOpenConnections())
	require.NoError(t, strat.Release(c1))
	require.Equal(t, int64(0), strat.Stats().NumberOfOpenConnections())

	c2, err := strat.Get(ctx, Write)
	require.NoError(t, err)
	require.Equal(t, int64(1), strat.Stats().MaxNumberOfConnections())
	require.NoError(t, strat.Release(c2))
}

func TestSingleConnectionStrategyReturnsSameReference(t *testing.T) {
	dsn := "single-connection-strategy-test"
	mock, err := sqlmock.NewWithDSN(dsn)
	require.NoError(t, err)
	mock.ExpectExec("PRAGMA").WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	strat, err := newSingleConnectionStrategy(ctx, Config{
		Mode:             SingleConnection,
		ConnectionString: dsn,
		DriverName:       "sqlmock",
		Dialect:          newSQLiteDialectForTest(),
	})
	require.NoError(t, err)
	defer strat.Close()

	c1, err := strat.Get(ctx, Write)
	require.NoError(t, err)
	c2, err := strat.Get(ctx, Read)
	require.NoError(t, err)
	require.Same(t, c1, c2)

	require.NoError(t, strat.Release(c1))
	require.Equal(t, int64(1), strat.Stats().NumberOfOpenConnections())
}

func TestSingleWriterStrategyWriterIsPersistent(t *testing.T) {
	dsn := "single-writer-strategy-test"
	mock, err := sqlmock.NewWithDSN(dsn)
	require.NoError(t, err)
	mock.ExpectExec("PRAGMA").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("PRAGMA").WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	strat, err := newSingleWriterStrategy(ctx, Config{
		Mode:             SingleWriter,
		ConnectionString: dsn,
		DriverName:       "sqlmock",
		Dialect:          newSQLiteDialectForTest(),
	})
	require.NoError(t, err)
	defer strat.Close()

	w1, err := strat.Get(ctx, Write)
	require.NoError(t, err)
	w2, err := strat.Get(ctx, Write)
	require.NoError(t, err)
	require.Same(t, w1, w2)

	r1, err := strat.Get(ctx, Read)
	require.NoError(t, err)
	require.NotSame(t, w1, r1)

	require.NoError(t, strat.Release(w1))
	require.NoError(t, strat.Release(r1))
}
