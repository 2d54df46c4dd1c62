package dbcontext

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/syssam/dbcore/coercion"
	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/container"
	"github.com/syssam/dbcore/dberr"
	"github.com/syssam/dbcore/dialect"
	"github.com/syssam/dbcore/poolgovernor"
	"github.com/syssam/dbcore/txcontext"
)

// fileBackedEmbeddedKinds and serverEngineKinds feed connstrategy.CoerceMode's
// mode-coercion rules (spec.md §4.3): SQLite/DuckDB survive independently
// of any one connection only while at least one stays open (file-backed),
// everything else here is a real server process.
var fileBackedEmbeddedKinds = map[dialect.DatabaseKind]bool{
	dialect.SQLite: true,
	dialect.DuckDB: true,
}

var serverEngineKinds = map[dialect.DatabaseKind]bool{
	dialect.SQLServer:   true,
	dialect.Postgres:    true,
	dialect.MySQL:       true,
	dialect.MariaDB:     true,
	dialect.Oracle:      true,
	dialect.Firebird:    true,
	dialect.CockroachDB: true,
}

// Context is the composition root of spec.md §2's "Database context" row:
// it owns the detected dialect, the connection strategy, the pool
// governor and the coercion registry, and is itself a
// container.ConnectionProvider so callers build a container.Container or
// start a transaction directly off it. Grounded on the teacher's
// ent.Client (dialect/sql/schema composition root owning Driver + config)
// generalized from a single *sql.DB wrapper into the four-mode connection
// strategy plus governor this spec requires.
type Context struct {
	cfg      Config
	dialect  *dialect.Descriptor
	strategy connstrategy.Strategy
	governor *poolgovernor.Governor
	registry *coercion.Registry
	logger   *slog.Logger

	resolvedMode connstrategy.Mode
	hasActiveTx  atomic.Bool
}

// New detects the dialect, opens the connection strategy and builds the
// pool governor/coercion registry for cfg. Any failure here is a setup
// error (spec.md §7): whatever strategy resources were already opened are
// closed before returning, and the sentinel is dberr.ErrConnectionFailed.
func New(ctx context.Context, cfg *Config) (*Context, error) {
	if cfg.ConnectionString == "" {
		return nil, dberr.Wrap(dberr.ErrConnectionFailed, "dbcontext: ConnectionString is required")
	}
	kind := resolveKind(cfg.ProviderName)
	driverName := resolveDriverName(kind, cfg.ProviderName)
	d := dialect.New(kind)

	resolvedMode := connstrategy.CoerceMode(cfg.DbMode, cfg.ConnectionString, serverEngineKinds[kind], fileBackedEmbeddedKinds[kind])

	writeConnStr := postProcessConnectionString(cfg.ConnectionString, d, resolvedMode, false, cfg.ApplicationName)
	readBase := cfg.ReadOnlyConnectionString
	if readBase == "" {
		readBase = cfg.ConnectionString
	}
	readConnStr := postProcessConnectionString(readBase, d, resolvedMode, true, cfg.ApplicationName)

	strategy, err := connstrategy.New(ctx, connstrategy.Config{
		Mode:                     resolvedMode,
		ConnectionString:         writeConnStr,
		ReadOnlyConnectionString: readConnStr,
		DriverName:               driverName,
		Dialect:                  d,
	})
	if err != nil {
		return nil, dberr.Wrap(dberr.ErrConnectionFailed, "dbcontext: opening %s strategy", resolvedMode)
	}

	dc := &Context{
		cfg:          *cfg,
		dialect:      d,
		strategy:     strategy,
		registry:     coercion.NewRegistry(),
		logger:       cfg.Logger,
		resolvedMode: resolvedMode,
	}
	dc.governor = poolgovernor.New(poolgovernor.Config{
		MaxConcurrentReads:  maxConcurrencyFor(cfg, resolvedMode, cfg.MaxConcurrentReads),
		MaxConcurrentWrites: maxConcurrencyFor(cfg, resolvedMode, cfg.MaxConcurrentWrites),
		AcquireTimeout:      cfg.PoolAcquireTimeout,
		WriterPreference:    cfg.writerPreferenceEnabled(),
		AlwaysEnabled:       resolvedMode == connstrategy.Standard,
	})

	dc.detectDialectInfo(ctx)

	return dc, nil
}

// maxConcurrencyFor zeroes out the configured limit when the pool
// governor is disabled for resolvedMode, so poolgovernor.New sees
// "unbounded" rather than a stale limit from a config that toggled the
// governor off.
func maxConcurrencyFor(cfg *Config, resolvedMode connstrategy.Mode, limit int64) int64 {
	if !cfg.poolGovernorEnabled(resolvedMode) {
		return 0
	}
	return limit
}

// detectDialectInfo borrows a write connection solely to run DetectInfo.
// Failure is a detection error (spec.md §7): swallowed, logged, and the
// dialect downgrades to Unknown/Sql92 internally — it never fails
// New.
func (dc *Context) detectDialectInfo(ctx context.Context) {
	tc, err := dc.strategy.Get(ctx, connstrategy.Write)
	if err != nil {
		dc.logger.Warn("dbcontext: skipping dialect detection, could not acquire connection", "error", err)
		return
	}
	defer dc.strategy.Release(tc)

	if _, ok := dc.dialect.DetectInfo(tc); !ok {
		dc.logger.Warn("dbcontext: dialect detection failed, falling back to Unknown/Sql92", "kind", dc.dialect.Kind)
	}
}

// Dialect returns the detected dialect descriptor.
func (dc *Context) Dialect() *dialect.Descriptor { return dc.dialect }

// Registry returns the coercion registry callers extend with
// RegisterMapping/RegisterConverter.
func (dc *Context) Registry() *coercion.Registry { return dc.registry }

// Stats reports the current open-connection bookkeeping for this
// context's strategy (spec.md §8 scenario 1/2).
func (dc *Context) Stats() *connstrategy.Stats { return dc.strategy.Stats() }

// Mode returns the strategy mode DbMode resolved to (Best is never
// returned; it is resolved once at construction).
func (dc *Context) Mode() connstrategy.Mode { return dc.resolvedMode }

// Acquire implements container.ConnectionProvider: it reserves a governor
// permit for channel, then asks the strategy for a connection and applies
// its session preamble. A write request against a ReadOnly-mode context
// fails fast with dberr.ErrReadOnlyContext before ever touching the
// governor or strategy.
func (dc *Context) Acquire(ctx context.Context, channel connstrategy.Channel) (*connstrategy.TrackedConnection, error) {
	if channel == connstrategy.Write && dc.cfg.ReadWriteMode == ReadOnly {
		return nil, dberr.ErrReadOnlyContext
	}
	if err := dc.governor.Acquire(ctx, channel); err != nil {
		return nil, err
	}
	tc, err := dc.strategy.Get(ctx, channel)
	if err != nil {
		dc.governor.Release(channel)
		return nil, fmt.Errorf("dbcontext: acquiring %s connection: %w", channel, err)
	}
	if err := tc.ApplyPreamble(ctx, dc.dialect); err != nil {
		dc.strategy.Release(tc)
		dc.governor.Release(channel)
		return nil, err
	}
	return tc, nil
}

// Release implements container.ConnectionProvider: it returns tc to the
// strategy, then frees the governor permit regardless of the strategy's
// release outcome (a failed release must not leak the in-process permit),
// logging a release failure rather than replacing whatever the caller's
// primary error already was, per spec.md §7.
func (dc *Context) Release(tc *connstrategy.TrackedConnection) error {
	if tc == nil {
		return nil
	}
	err := dc.strategy.Release(tc)
	dc.governor.Release(tc.Channel)
	if err != nil {
		dc.logger.Warn("dbcontext: connection release failed", "channel", tc.Channel, "error", err)
	}
	return err
}

// NewContainer builds a Container bound to this context and channel,
// ready for AddParameter/Append/Execute* calls.
func (dc *Context) NewContainer(channel connstrategy.Channel) *container.Container {
	return container.New(dc.dialect, dc, channel)
}

// BeginTransaction starts a transaction on a freshly acquired write
// connection. A second BeginTransaction before the first transaction's
// Commit/Rollback/Dispose fails with dberr.ErrNestedTransactionRejected,
// per spec.md §6 (the core itself never nests transactions; a façade
// wanting nested semantics layers savepoints on top via
// TransactionContext.Savepoint).
func (dc *Context) BeginTransaction(ctx context.Context, opts *sql.TxOptions) (*txcontext.TransactionContext, error) {
	if !dc.hasActiveTx.CompareAndSwap(false, true) {
		return nil, dberr.ErrNestedTransactionRejected
	}

	tc, err := dc.Acquire(ctx, connstrategy.Write)
	if err != nil {
		dc.hasActiveTx.Store(false)
		return nil, err
	}

	release := func(tracked *connstrategy.TrackedConnection) error {
		dc.hasActiveTx.Store(false)
		return dc.Release(tracked)
	}

	txc, err := txcontext.Begin(ctx, tc, dc.dialect, opts, release, dc.logger)
	if err != nil {
		dc.hasActiveTx.Store(false)
		dc.Release(tc)
		return nil, err
	}
	return txc, nil
}

// WithTransaction runs fn inside a new transaction, committing on success
// and rolling back (then re-panicking) on error or panic, per spec.md
// §4.5.
func (dc *Context) WithTransaction(ctx context.Context, opts *sql.TxOptions, fn func(*txcontext.TransactionContext) error) error {
	if !dc.hasActiveTx.CompareAndSwap(false, true) {
		return dberr.ErrNestedTransactionRejected
	}
	defer dc.hasActiveTx.Store(false)

	tc, err := dc.Acquire(ctx, connstrategy.Write)
	if err != nil {
		dc.hasActiveTx.Store(false)
		return err
	}

	release := func(tracked *connstrategy.TrackedConnection) error {
		return dc.Release(tracked)
	}
	return txcontext.WithTransaction(ctx, tc, dc.dialect, opts, release, dc.logger, fn)
}

// Close disposes every persistent/sentinel connection this context's
// strategy owns. Safe to call more than once.
func (dc *Context) Close() error {
	return dc.strategy.Close()
}
