package connstrategy

import (
	"context"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcore/dialect"
)

// These tests exercise the SingleWriter strategy against a real,
// file-backed modernc.org/sqlite database rather than sqlmock, covering
// spec.md §8's "SingleWriter, file-backed SQLite" scenario: two Write
// gets return the same persistent connection, Read opens a distinct
// read-only-marked connection, and release behavior differs by channel.

func newFileBackedSQLiteConfig(t *testing.T) Config {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "connstrategy.db")
	return Config{
		Mode:             SingleWriter,
		ConnectionString: dsn,
		DriverName:       "sqlite",
		Dialect:          dialect.New(dialect.SQLite),
	}
}

func TestSingleWriterFileBackedSQLiteWriterIsPersistentAcrossGets(t *testing.T) {
	strategy, err := New(context.Background(), newFileBackedSQLiteConfig(t))
	require.NoError(t, err)
	defer strategy.Close()

	w1, err := strategy.Get(context.Background(), Write)
	require.NoError(t, err)
	w2, err := strategy.Get(context.Background(), Write)
	require.NoError(t, err)
	assert.Same(t, w1, w2)

	require.NoError(t, strategy.Release(w1))
	require.NoError(t, strategy.Release(w2))
	assert.Equal(t, int64(1), strategy.Stats().NumberOfOpenConnections())
}

func TestSingleWriterFileBackedSQLiteReadIsDistinctAndReadOnlyMarked(t *testing.T) {
	strategy, err := New(context.Background(), newFileBackedSQLiteConfig(t))
	require.NoError(t, err)
	defer strategy.Close()

	w, err := strategy.Get(context.Background(), Write)
	require.NoError(t, err)
	r, err := strategy.Get(context.Background(), Read)
	require.NoError(t, err)

	assert.NotSame(t, w, r)
	assert.True(t, r.ReadOnly)
	assert.False(t, w.ReadOnly)

	require.NoError(t, strategy.Release(r))
	require.NoError(t, strategy.Release(w))
}

func TestSingleWriterFileBackedSQLiteReleasingWriterKeepsItOpen(t *testing.T) {
	strategy, err := New(context.Background(), newFileBackedSQLiteConfig(t))
	require.NoError(t, err)
	defer strategy.Close()

	w, err := strategy.Get(context.Background(), Write)
	require.NoError(t, err)
	require.NoError(t, strategy.Release(w))

	w2, err := strategy.Get(context.Background(), Write)
	require.NoError(t, err)
	assert.Same(t, w, w2)
}
