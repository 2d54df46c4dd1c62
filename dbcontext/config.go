// Package dbcontext is the composition root described in spec.md §2's
// "Database context" row: it owns the detected dialect, the connection
// strategy, the pool governor and the coercion registry, and exposes the
// container/transaction factory the rest of the module builds on. It is
// grounded on the teacher's compiler/gen.Config/Option pair (functional
// options over a plain struct, validated before use) generalized from a
// code-generation config into a runtime connection config.
package dbcontext

import (
	"log/slog"
	"time"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dialect"
)

// ReadWriteMode is spec.md §6's ReadWriteMode option.
type ReadWriteMode int

const (
	ReadWrite ReadWriteMode = iota
	ReadOnly
)

func (m ReadWriteMode) String() string {
	if m == ReadOnly {
		return "ReadOnly"
	}
	return "ReadWrite"
}

const (
	defaultPoolAcquireTimeout = 5 * time.Second
	defaultModeLockTimeout    = 30 * time.Second
)

// Config is the full set of recognized construction options from
// spec.md §6. The zero value is not directly usable: ConnectionString and
// ProviderName are required, so construct one with NewConfig plus
// With*-options (or LoadConfig from a YAML file) rather than a bare
// literal.
type Config struct {
	ConnectionString         string
	ReadOnlyConnectionString string
	ProviderName             string

	DbMode        connstrategy.Mode
	ReadWriteMode ReadWriteMode

	MaxConcurrentReads  int64
	MaxConcurrentWrites int64

	PoolAcquireTimeout time.Duration
	ModeLockTimeout    time.Duration

	// EnablePoolGovernor, EnableWriterPreference, ForceManualPrepare and
	// DisablePrepare are tri-state: nil means "use the spec default",
	// letting the With* options and DbMode coercion tell unset from
	// explicitly-false.
	EnablePoolGovernor     *bool
	EnableWriterPreference *bool
	ForceManualPrepare     *bool
	DisablePrepare         *bool

	ApplicationName string

	Logger *slog.Logger
}

// NewConfig returns a Config with ConnectionString/ProviderName set and
// every other field at its spec.md §6 default, then applies opts in
// order. Construction fails fast (returns the first option's error)
// rather than collecting every error, matching the teacher's gen.Config
// pattern (compiler/gen/config.go's Option chain).
func NewConfig(connectionString, providerName string, opts ...Option) (*Config, error) {
	cfg := &Config{
		ConnectionString:   connectionString,
		ProviderName:       providerName,
		DbMode:             connstrategy.Best,
		ReadWriteMode:      ReadWrite,
		PoolAcquireTimeout: defaultPoolAcquireTimeout,
		ModeLockTimeout:    defaultModeLockTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PoolAcquireTimeout <= 0 {
		c.PoolAcquireTimeout = defaultPoolAcquireTimeout
	}
	if c.ModeLockTimeout <= 0 {
		c.ModeLockTimeout = defaultModeLockTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// poolGovernorEnabled resolves the tri-state EnablePoolGovernor against
// spec.md §6's default (true) and §4.4's "ignored and forced true in
// Standard mode" override.
func (c *Config) poolGovernorEnabled(resolvedMode connstrategy.Mode) bool {
	if resolvedMode == connstrategy.Standard {
		return true
	}
	if c.EnablePoolGovernor == nil {
		return true
	}
	return *c.EnablePoolGovernor
}

func (c *Config) writerPreferenceEnabled() bool {
	if c.EnableWriterPreference == nil {
		return true
	}
	return *c.EnableWriterPreference
}

// providerKinds maps spec.md §6's ProviderName option onto the dialect
// registry. Only the engines the retrieval pack registers a live driver
// for (SPEC_FULL.md §13) get a DriverName; the rest still resolve a
// dialect.Descriptor, they just can't be opened by dbcontext itself
// without the caller blank-importing a driver and supplying an
// already-registered database/sql driver name via ProviderName.
var providerKinds = map[string]dialect.DatabaseKind{
	"sqlserver":   dialect.SQLServer,
	"postgres":    dialect.Postgres,
	"pgx":         dialect.Postgres,
	"mysql":       dialect.MySQL,
	"mariadb":     dialect.MariaDB,
	"sqlite":      dialect.SQLite,
	"sqlite3":     dialect.SQLite,
	"oracle":      dialect.Oracle,
	"firebird":    dialect.Firebird,
	"cockroachdb": dialect.CockroachDB,
	"duckdb":      dialect.DuckDB,
}

// driverNames maps a DatabaseKind to the database/sql driver name
// registered by the dependency SPEC_FULL.md §11 assigns it. Engines
// without an entry here require the caller to pass a ProviderName that is
// already a registered database/sql driver name (e.g. a blank-imported
// SQL Server driver), per SPEC_FULL.md §13.
var driverNames = map[dialect.DatabaseKind]string{
	dialect.Postgres:    "postgres",
	dialect.CockroachDB: "postgres",
	dialect.MySQL:       "mysql",
	dialect.MariaDB:     "mysql",
	dialect.SQLite:      "sqlite",
}

// resolveKind maps ProviderName to a DatabaseKind, falling back to
// dialect.Unknown for a name the registry doesn't recognize (the caller
// may still be passing a valid database/sql driver name for an engine
// dbcore has no built-in dialect variant for).
func resolveKind(providerName string) dialect.DatabaseKind {
	if kind, ok := providerKinds[providerName]; ok {
		return kind
	}
	return dialect.Unknown
}

// resolveDriverName returns the database/sql driver name to pass to
// sql.Open: the registered name for kind if dbcore knows one, otherwise
// providerName itself (the caller's own registered driver).
func resolveDriverName(kind dialect.DatabaseKind, providerName string) string {
	if name, ok := driverNames[kind]; ok {
		return name
	}
	return providerName
}
