package connstrategy

import (
	"context"
	"database/sql"

	"github.com/syssam/dbcore/dialect"
)

// Strategy decides which physical connection to hand back for a channel
// request and whether the caller must release it afterwards. The four
// built-in implementations (Standard, KeepAlive, SingleWriter,
// SingleConnection) are constructed by New; callers never implement this
// interface themselves.
type Strategy interface {
	// Get returns a connection for channel. The returned connection must
	// be passed to Release exactly once, even when LeaseKind makes that
	// call a no-op.
	Get(ctx context.Context, channel Channel) (*TrackedConnection, error)
	// Release returns a connection acquired from Get. It is always safe
	// to call, including on a Persistent/Sentinel connection.
	Release(tc *TrackedConnection) error
	// Stats reports the current open-connection bookkeeping.
	Stats() *Stats
	// Close disposes every persistent/sentinel connection this strategy
	// owns. Safe to call more than once.
	Close() error
}

// Config carries everything a Strategy constructor needs: the DSNs for
// each channel, the detected dialect, and the resolved Mode.
type Config struct {
	Mode                     Mode
	ConnectionString         string
	ReadOnlyConnectionString string // optional; defaults to ConnectionString
	DriverName               string // database/sql driver name to pass to sql.Open
	Dialect                  *dialect.Descriptor
}

func (c Config) readDSN() string {
	if c.ReadOnlyConnectionString != "" {
		return c.ReadOnlyConnectionString
	}
	return c.ConnectionString
}

// New opens and returns the Strategy for cfg.Mode. When opening the
// strategy's persistent/sentinel connection(s) fails, New closes whatever
// it already opened and returns dberr.ErrConnectionFailed (wrapped), per
// spec.md §4.3's initialization failure semantics. When the session
// preamble fails on such a connection, New closes it and returns the
// preamble error as is, without the ErrConnectionFailed sentinel.
func New(ctx context.Context, cfg Config) (Strategy, error) {
	switch cfg.Mode {
	case Standard:
		return newStandardStrategy(cfg), nil
	case KeepAlive:
		return newKeepAliveStrategy(ctx, cfg)
	case SingleWriter:
		return newSingleWriterStrategy(ctx, cfg)
	case SingleConnection:
		return newSingleConnectionStrategy(ctx, cfg)
	default:
		return newStandardStrategy(cfg), nil
	}
}

func openConn(ctx context.Context, cfg Config, dsn string) (*sql.DB, *sql.Conn, error) {
	db, err := sql.Open(cfg.DriverName, dsn)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, conn, nil
}
