package connstrategy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/syssam/dbcore/dialect"
)

// LeaseKind classifies a TrackedConnection for release semantics: a
// Persistent connection's Release is a no-op (the strategy owns it
// instead), a Sentinel connection exists only to keep an in-memory
// database alive and is never handed out for queries, and an Ephemeral
// connection is disposed on Release.
type LeaseKind int

const (
	Ephemeral LeaseKind = iota
	Persistent
	Sentinel
)

// ExecQuerier wraps the subset of *sql.Conn/*sql.DB/*sql.Tx used by the
// container package, mirrored from the teacher's dialect/sql.ExecQuerier
// so container never imports database/sql directly.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TrackedConnection is a physical connection plus the bookkeeping a
// Strategy needs to decide how to release it: its lease kind, the
// channel it was acquired for, and whether the session preamble has
// already been applied (preambles run once per physical connection, not
// once per borrow).
type TrackedConnection struct {
	ExecQuerier
	conn *sql.Conn

	Channel    Channel
	LeaseKind  LeaseKind
	ReadOnly   bool
	dialectKnd dialect.DatabaseKind

	mu              sync.Mutex
	preambleApplied bool
}

func newTrackedConnection(conn *sql.Conn, channel Channel, kind LeaseKind, readOnly bool, dk dialect.DatabaseKind) *TrackedConnection {
	return &TrackedConnection{ExecQuerier: conn, conn: conn, Channel: channel, LeaseKind: kind, ReadOnly: readOnly, dialectKnd: dk}
}

// NewTxConnection wraps a transaction's ExecQuerier (normally a *sql.Tx)
// as a TrackedConnection, letting container.Container execute against a
// transaction through the exact same ConnectionProvider surface it uses
// for a direct connection. Its LeaseKind is always Persistent: the owning
// transaction controls the underlying connection's lifetime, so Close is
// never called on it through this wrapper.
func NewTxConnection(execQuerier ExecQuerier, channel Channel, readOnly bool, dk dialect.DatabaseKind) *TrackedConnection {
	return &TrackedConnection{ExecQuerier: execQuerier, Channel: channel, LeaseKind: Persistent, ReadOnly: readOnly, dialectKnd: dk}
}

// BeginTx starts a transaction on this specific physical connection, so
// the caller (txcontext) can guarantee every statement in the transaction
// runs on the same session the provider detected/prepared.
func (t *TrackedConnection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return t.conn.BeginTx(ctx, opts)
}

// DialectKind reports which engine this connection was opened against.
func (t *TrackedConnection) DialectKind() dialect.DatabaseKind { return t.dialectKnd }

// QueryVersionString implements dialect.VersionQuerier.
func (t *TrackedConnection) QueryVersionString(query string) (string, error) {
	var out string
	row := t.conn.QueryRowContext(context.Background(), query)
	if err := row.Scan(&out); err != nil {
		return "", fmt.Errorf("connstrategy: version query: %w", err)
	}
	return out, nil
}

// ApplyPreamble runs d's session preamble against this connection exactly
// once, memoizing success so repeated borrows of a Persistent/Sentinel
// connection don't re-issue it.
func (t *TrackedConnection) ApplyPreamble(ctx context.Context, d *dialect.Descriptor) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.preambleApplied {
		return nil
	}
	preamble := d.GetSessionPreamble(t.ReadOnly)
	if preamble != "" {
		if _, err := t.conn.ExecContext(ctx, preamble); err != nil {
			return fmt.Errorf("connstrategy: session preamble: %w", err)
		}
	}
	t.preambleApplied = true
	return nil
}

// Close disposes the underlying driver connection. Strategies call this
// directly for Ephemeral/Sentinel connections on teardown; ordinary
// Release for an Ephemeral connection also routes here.
func (t *TrackedConnection) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// errClosedPool is returned internally when a strategy is asked for a
// connection after Close has already run.
var errClosedPool = errors.New("connstrategy: strategy is closed")
