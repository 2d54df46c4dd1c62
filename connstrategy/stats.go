package connstrategy

import "sync/atomic"

// Stats tracks the two quantified invariants spec.md §8 names explicitly:
// the current open-connection count and the high-water mark, grounded on
// the teacher's QueryStats atomic-counter pattern in dialect/sql/stats.go.
type Stats struct {
	open atomic.Int64
	max  atomic.Int64
}

// NumberOfOpenConnections returns the current count of connections this
// strategy has open (persistent connections plus any outstanding
// ephemeral borrows).
func (s *Stats) NumberOfOpenConnections() int64 { return s.open.Load() }

// MaxNumberOfConnections returns the high-water mark since construction
// or the last Reset.
func (s *Stats) MaxNumberOfConnections() int64 { return s.max.Load() }

func (s *Stats) recordOpen() {
	n := s.open.Add(1)
	for {
		cur := s.max.Load()
		if n <= cur || s.max.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (s *Stats) recordClose() {
	s.open.Add(-1)
}

// Reset zeroes both the open count and the high-water mark, for tests
// that need a clean slate.
func (s *Stats) Reset() {
	s.open.Store(0)
	s.max.Store(0)
}
