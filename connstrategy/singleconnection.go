package connstrategy

import (
	"context"
	"database/sql"
	"sync"

	"github.com/syssam/dbcore/dberr"
)

// singleConnectionStrategy shares one persistent connection across both
// channels. Every Get returns the same reference; Release is always a
// no-op. This is the mode in-memory databases are unconditionally
// coerced to (CoerceMode), since a second physical connection to
// ":memory:" would see an empty, independent database.
type singleConnectionStrategy struct {
	cfg  Config
	db   *sql.DB
	conn *TrackedConnection

	mu     sync.Mutex
	closed bool
	stats  Stats
}

func newSingleConnectionStrategy(ctx context.Context, cfg Config) (*singleConnectionStrategy, error) {
	db, conn, err := openConn(ctx, cfg, cfg.ConnectionString)
	if err != nil {
		return nil, dberr.Wrap(dberr.ErrConnectionFailed, "connstrategy: singleconnection: open: %v", err)
	}
	tc := newTrackedConnection(conn, Write, Persistent, false, cfg.Dialect.Kind)
	s := &singleConnectionStrategy{cfg: cfg, db: db, conn: tc}
	s.stats.recordOpen()
	if err := tc.ApplyPreamble(ctx, cfg.Dialect); err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *singleConnectionStrategy) Get(ctx context.Context, channel Channel) (*TrackedConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosedPool
	}
	return s.conn, nil
}

func (s *singleConnectionStrategy) Release(tc *TrackedConnection) error { return nil }

func (s *singleConnectionStrategy) Stats() *Stats { return &s.stats }

func (s *singleConnectionStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err1 := s.conn.Close()
	err2 := s.db.Close()
	s.stats.recordClose()
	if err1 != nil {
		return err1
	}
	return err2
}

var _ Strategy = (*singleConnectionStrategy)(nil)
