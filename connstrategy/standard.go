package connstrategy

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// standardStrategy opens a fresh connection on every Get and disposes it
// on Release. The detection connection used during context construction
// is disposed separately by dbcontext once DetectInfo has run; this
// strategy itself never holds a connection open.
type standardStrategy struct {
	cfg   Config
	mu    sync.Mutex
	dbs   map[Channel]*sql.DB
	stats Stats
	closed bool
}

func newStandardStrategy(cfg Config) *standardStrategy {
	return &standardStrategy{cfg: cfg, dbs: map[Channel]*sql.DB{}}
}

func (s *standardStrategy) dsn(channel Channel) string {
	if channel == Read {
		return s.cfg.readDSN()
	}
	return s.cfg.ConnectionString
}

func (s *standardStrategy) dbFor(channel Channel) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosedPool
	}
	if db, ok := s.dbs[channel]; ok {
		return db, nil
	}
	db, err := sql.Open(s.cfg.DriverName, s.dsn(channel))
	if err != nil {
		return nil, err
	}
	s.dbs[channel] = db
	return db, nil
}

func (s *standardStrategy) Get(ctx context.Context, channel Channel) (*TrackedConnection, error) {
	db, err := s.dbFor(channel)
	if err != nil {
		return nil, fmt.Errorf("connstrategy: standard: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connstrategy: standard: %w", err)
	}
	tc := newTrackedConnection(conn, channel, Ephemeral, channel == Read, s.cfg.Dialect.Kind)
	s.stats.recordOpen()
	if err := tc.ApplyPreamble(ctx, s.cfg.Dialect); err != nil {
		s.stats.recordClose()
		conn.Close()
		return nil, err
	}
	return tc, nil
}

func (s *standardStrategy) Release(tc *TrackedConnection) error {
	if tc == nil {
		return nil
	}
	err := tc.Close()
	s.stats.recordClose()
	return err
}

func (s *standardStrategy) Stats() *Stats { return &s.stats }

func (s *standardStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var firstErr error
	for _, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Strategy = (*standardStrategy)(nil)
