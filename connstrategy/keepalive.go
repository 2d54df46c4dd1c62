package connstrategy

import (
	"context"
	"database/sql"
	"sync"

	"github.com/syssam/dbcore/dberr"
)

// keepAliveStrategy holds a single sentinel connection open for the
// context's lifetime — preventing an in-memory/ephemeral database from
// being torn down between borrows — plus a fresh connection per Get,
// exactly like standardStrategy otherwise.
type keepAliveStrategy struct {
	*standardStrategy
	sentinelDB   *sql.DB
	sentinelConn *TrackedConnection
	mu           sync.Mutex
}

func newKeepAliveStrategy(ctx context.Context, cfg Config) (*keepAliveStrategy, error) {
	db, conn, err := openConn(ctx, cfg, cfg.ConnectionString)
	if err != nil {
		return nil, dberr.Wrap(dberr.ErrConnectionFailed, "connstrategy: keepalive: open sentinel: %v", err)
	}
	sentinel := newTrackedConnection(conn, Write, Sentinel, false, cfg.Dialect.Kind)
	k := &keepAliveStrategy{
		standardStrategy: newStandardStrategy(cfg),
		sentinelDB:       db,
		sentinelConn:     sentinel,
	}
	k.stats.recordOpen()
	if err := sentinel.ApplyPreamble(ctx, cfg.Dialect); err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}
	return k, nil
}

// Get returns a fresh connection exactly like Standard; the sentinel is
// never handed out for queries, only kept alive.
func (k *keepAliveStrategy) Get(ctx context.Context, channel Channel) (*TrackedConnection, error) {
	return k.standardStrategy.Get(ctx, channel)
}

// Release disposes any ordinary connection; releasing the sentinel
// itself (which callers never do, since Get never returns it) would be a
// no-op, matching spec.md §4.3.
func (k *keepAliveStrategy) Release(tc *TrackedConnection) error {
	if tc != nil && tc.LeaseKind == Sentinel {
		return nil
	}
	return k.standardStrategy.Release(tc)
}

func (k *keepAliveStrategy) Stats() *Stats { return &k.standardStrategy.stats }

func (k *keepAliveStrategy) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	err1 := k.sentinelConn.Close()
	err2 := k.sentinelDB.Close()
	err3 := k.standardStrategy.Close()
	if err1 != nil {
		return err1
	}
	if err2 != nil {
		return err2
	}
	return err3
}

var _ Strategy = (*keepAliveStrategy)(nil)
