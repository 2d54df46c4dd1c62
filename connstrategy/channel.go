// Package connstrategy decides, for a given read/write request and
// connection-strategy mode, which physical connection to hand back and
// whether the caller must release it afterwards. It is grounded on the
// teacher's dialect/sql package (Driver/Conn/Tx wrapping, session-var
// mechanism, StatsDriver/DebugDriver instrumentation), generalized from
// ent's fixed Driver/Tx contract into the four connection-lifetime modes
// spec.md §4.3 describes.
package connstrategy

// Channel is which logical pipe a caller is requesting a connection for.
// Read and Write are tracked independently so the pool governor and the
// SingleWriter/KeepAlive strategies can treat them asymmetrically.
type Channel int

const (
	Write Channel = iota
	Read
)

func (c Channel) String() string {
	if c == Read {
		return "read"
	}
	return "write"
}
