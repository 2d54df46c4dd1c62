package dbcontext

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/syssam/dbcore/connstrategy"
)

// Option configures a Config, mirrored from the teacher's
// compiler/gen.Option (func(*Config) error), so a bad option value fails
// construction immediately with a descriptive error instead of silently
// producing an unusable context.
type Option func(*Config) error

// WithReadOnlyConnectionString sets the connection string Read-channel
// connections are built from; unset, Read shares ConnectionString.
func WithReadOnlyConnectionString(connStr string) Option {
	return func(c *Config) error {
		c.ReadOnlyConnectionString = connStr
		return nil
	}
}

// WithDbMode sets the requested connection-strategy mode. It is coerced
// at context construction (connstrategy.CoerceMode) against the detected
// connection string and engine, so an invalid combination here is not
// rejected until New runs.
func WithDbMode(mode connstrategy.Mode) Option {
	return func(c *Config) error {
		c.DbMode = mode
		return nil
	}
}

// WithReadWriteMode sets whether this context may issue write operations
// at all.
func WithReadWriteMode(mode ReadWriteMode) Option {
	return func(c *Config) error {
		c.ReadWriteMode = mode
		return nil
	}
}

// WithMaxConcurrency sets the pool governor's per-channel permit counts.
// A value <= 0 means "unbounded" for that channel, per spec.md §4.4.
func WithMaxConcurrency(reads, writes int64) Option {
	return func(c *Config) error {
		c.MaxConcurrentReads = reads
		c.MaxConcurrentWrites = writes
		return nil
	}
}

// WithPoolAcquireTimeout overrides the governor's default 5s acquire
// timeout.
func WithPoolAcquireTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("dbcontext: PoolAcquireTimeout must be positive, got %s", d)
		}
		c.PoolAcquireTimeout = d
		return nil
	}
}

// WithModeLockTimeout overrides the default 30s cross-mode reconfiguration
// lock timeout.
func WithModeLockTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("dbcontext: ModeLockTimeout must be positive, got %s", d)
		}
		c.ModeLockTimeout = d
		return nil
	}
}

// WithPoolGovernor explicitly enables or disables the governor. Ignored
// in Standard mode, where spec.md §4.4 forces it on regardless.
func WithPoolGovernor(enabled bool) Option {
	return func(c *Config) error {
		c.EnablePoolGovernor = &enabled
		return nil
	}
}

// WithWriterPreference explicitly enables or disables writer-preference
// ordering on the governor's semaphores.
func WithWriterPreference(enabled bool) Option {
	return func(c *Config) error {
		c.EnableWriterPreference = &enabled
		return nil
	}
}

// WithForceManualPrepare sets the tri-state ForceManualPrepare option.
func WithForceManualPrepare(enabled bool) Option {
	return func(c *Config) error {
		c.ForceManualPrepare = &enabled
		return nil
	}
}

// WithDisablePrepare sets the tri-state DisablePrepare option.
func WithDisablePrepare(enabled bool) Option {
	return func(c *Config) error {
		c.DisablePrepare = &enabled
		return nil
	}
}

// WithApplicationName stamps ApplicationName into the connection string
// when the dialect has an application-name key (spec.md §6).
func WithApplicationName(name string) Option {
	return func(c *Config) error {
		c.ApplicationName = name
		return nil
	}
}

// WithLogger injects the *slog.Logger used by the strategy, governor and
// transaction context. Defaults to slog.Default() when never called.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("dbcontext: logger must not be nil")
		}
		c.Logger = logger
		return nil
	}
}
