package connstrategy

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/syssam/dbcore/dberr"
)

// singleWriterStrategy holds exactly one persistent writer connection;
// get(Write) always returns it. get(Read) opens a fresh read-only
// connection per call, marked with the dialect's read-only session
// command (e.g. PRAGMA query_only=1 on SQLite). This is the mode
// file-backed embedded engines resolve to under DbMode.Best.
type singleWriterStrategy struct {
	cfg      Config
	writerDB *sql.DB
	writer   *TrackedConnection
	readDB   *sql.DB

	mu     sync.Mutex
	closed bool
	stats  Stats
}

func newSingleWriterStrategy(ctx context.Context, cfg Config) (*singleWriterStrategy, error) {
	db, conn, err := openConn(ctx, cfg, cfg.ConnectionString)
	if err != nil {
		return nil, dberr.Wrap(dberr.ErrConnectionFailed, "connstrategy: singlewriter: open writer: %v", err)
	}
	writer := newTrackedConnection(conn, Write, Persistent, false, cfg.Dialect.Kind)
	s := &singleWriterStrategy{cfg: cfg, writerDB: db, writer: writer}
	s.stats.recordOpen()
	if err := writer.ApplyPreamble(ctx, cfg.Dialect); err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}
	readDB, err := sql.Open(cfg.DriverName, cfg.readDSN())
	if err != nil {
		writer.Close()
		db.Close()
		return nil, dberr.Wrap(dberr.ErrConnectionFailed, "connstrategy: singlewriter: open read pool: %v", err)
	}
	s.readDB = readDB
	return s, nil
}

func (s *singleWriterStrategy) Get(ctx context.Context, channel Channel) (*TrackedConnection, error) {
	if channel == Write {
		return s.writer, nil
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errClosedPool
	}
	conn, err := s.readDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connstrategy: singlewriter: open reader: %w", err)
	}
	tc := newTrackedConnection(conn, Read, Ephemeral, true, s.cfg.Dialect.Kind)
	s.stats.recordOpen()
	if err := tc.ApplyPreamble(ctx, s.cfg.Dialect); err != nil {
		s.stats.recordClose()
		conn.Close()
		return nil, err
	}
	return tc, nil
}

func (s *singleWriterStrategy) Release(tc *TrackedConnection) error {
	if tc == nil || tc.LeaseKind == Persistent {
		return nil
	}
	err := tc.Close()
	s.stats.recordClose()
	return err
}

func (s *singleWriterStrategy) Stats() *Stats { return &s.stats }

func (s *singleWriterStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err1 := s.writer.Close()
	err2 := s.writerDB.Close()
	err3 := s.readDB.Close()
	s.stats.recordClose()
	if err1 != nil {
		return err1
	}
	if err2 != nil {
		return err2
	}
	return err3
}

var _ Strategy = (*singleWriterStrategy)(nil)
