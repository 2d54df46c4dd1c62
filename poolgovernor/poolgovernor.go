// Package poolgovernor bounds in-process concurrency on each connection
// channel independently of whatever pooling the underlying provider does
// internally, grounded on the icinga-go-library database package's use
// of golang.org/x/sync/semaphore.Weighted to rate-limit bulk operations
// (other_examples' Icinga db.go: tableSemaphores map[string]*semaphore.Weighted).
package poolgovernor

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dberr"
)

// defaultAcquireTimeout matches spec.md §6's PoolAcquireTimeout default.
const defaultAcquireTimeout = 5 * time.Second

// Config configures a Governor. A zero MaxConcurrentReads/MaxConcurrentWrites
// means "disabled" (unlimited) for that channel, per spec.md §4.4 — the
// default when the provider's own pooling is disabled in the connection
// string and the caller supplies no explicit limit.
type Config struct {
	MaxConcurrentReads, MaxConcurrentWrites int64
	AcquireTimeout                          time.Duration
	WriterPreference                        bool
	// AlwaysEnabled forces both semaphores active even at zero limits,
	// matching Standard mode's "governor is always enabled" rule; when
	// false (SingleConnection may disable both), a zero limit disables
	// the corresponding channel's semaphore entirely.
	AlwaysEnabled bool
}

// Governor owns the two channel semaphores described in spec.md §4.4: one
// permit pool for reads, one for writes, acquired independently.
type Governor struct {
	reads, writes    *semaphore.Weighted
	acquireTimeout   time.Duration
	writerPreference bool
	writerWaiting    chan struct{} // buffered 1; non-empty while a writer waits, used to bump writer priority
}

// New constructs a Governor from cfg. A channel whose limit is <= 0 and
// is not AlwaysEnabled gets a nil semaphore, meaning Acquire/Release for
// that channel are no-ops (unbounded concurrency).
func New(cfg Config) *Governor {
	g := &Governor{
		acquireTimeout:   cfg.AcquireTimeout,
		writerPreference: cfg.WriterPreference,
		writerWaiting:    make(chan struct{}, 1),
	}
	if g.acquireTimeout <= 0 {
		g.acquireTimeout = defaultAcquireTimeout
	}
	if cfg.MaxConcurrentReads > 0 || cfg.AlwaysEnabled {
		limit := cfg.MaxConcurrentReads
		if limit <= 0 {
			limit = 1
		}
		g.reads = semaphore.NewWeighted(limit)
	}
	if cfg.MaxConcurrentWrites > 0 || cfg.AlwaysEnabled {
		limit := cfg.MaxConcurrentWrites
		if limit <= 0 {
			limit = 1
		}
		g.writes = semaphore.NewWeighted(limit)
	}
	return g
}

// sem returns the semaphore governing channel, or nil if that channel is
// unbounded.
func (g *Governor) sem(channel connstrategy.Channel) *semaphore.Weighted {
	if channel == connstrategy.Read {
		return g.reads
	}
	return g.writes
}

// Acquire blocks until a permit on channel is available or
// AcquireTimeout elapses, in which case it fails with
// dberr.ErrPoolAcquireTimeout. When WriterPreference is enabled and a
// writer is currently waiting, a concurrent Read acquisition yields
// briefly so the writer is more likely to win the next available permit,
// avoiding writer starvation under sustained read load.
func (g *Governor) Acquire(ctx context.Context, channel connstrategy.Channel) error {
	sem := g.sem(channel)
	if sem == nil {
		return nil
	}

	if channel == connstrategy.Write && g.writerPreference {
		select {
		case g.writerWaiting <- struct{}{}:
			defer func() { <-g.writerWaiting }()
		default:
		}
	}
	if channel == connstrategy.Read && g.writerPreference {
		select {
		case <-g.writerWaiting:
			g.writerWaiting <- struct{}{}
			runtime.Gosched()
		default:
		}
	}

	acquireCtx, cancel := context.WithTimeout(ctx, g.acquireTimeout)
	defer cancel()
	if err := sem.Acquire(acquireCtx, 1); err != nil {
		return dberr.Wrap(dberr.ErrPoolAcquireTimeout, "poolgovernor: %s channel: %v", channel, err)
	}
	return nil
}

// Release returns a permit acquired on channel. Safe to call even when
// the channel is unbounded (Release on a nil semaphore is a no-op).
func (g *Governor) Release(channel connstrategy.Channel) {
	if sem := g.sem(channel); sem != nil {
		sem.Release(1)
	}
}

// ReadEnabled and WriteEnabled report whether the respective channel is
// bounded at all, for callers (dbcontext.Stats) that want to surface
// governor state without reaching into internals.
func (g *Governor) ReadEnabled() bool  { return g.reads != nil }
func (g *Governor) WriteEnabled() bool { return g.writes != nil }
