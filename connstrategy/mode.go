package connstrategy

import "strings"

// Mode selects which Strategy a Context constructs. Best is resolved at
// construction time into one of the concrete modes and never reaches a
// Strategy implementation directly.
type Mode int

const (
	Best Mode = iota
	Standard
	KeepAlive
	SingleWriter
	SingleConnection
)

func (m Mode) String() string {
	switch m {
	case Best:
		return "Best"
	case Standard:
		return "Standard"
	case KeepAlive:
		return "KeepAlive"
	case SingleWriter:
		return "SingleWriter"
	case SingleConnection:
		return "SingleConnection"
	default:
		return "Unknown"
	}
}

// isInMemoryDSN reports whether connStr identifies an in-memory/ephemeral
// database that would vanish if its last connection closed. SQLite's
// ":memory:" and the shared-cache "file::memory:" / "mode=memory" forms
// are recognized, matching the engines the example pack actually wires
// (modernc.org/sqlite).
func isInMemoryDSN(connStr string) bool {
	lower := strings.ToLower(connStr)
	return strings.Contains(lower, ":memory:") || strings.Contains(lower, "mode=memory")
}

// CoerceMode applies spec.md §4.3's mode-coercion rules at context
// construction time: an in-memory DSN always forces SingleConnection; a
// server product (isServerEngine) requesting KeepAlive can never be
// coerced away from it, since the database survives independently of any
// one connection; Best resolves to SingleConnection for in-memory,
// SingleWriter for file-backed embedded engines (SQLite/DuckDB), and
// Standard otherwise.
func CoerceMode(requested Mode, connStr string, isServerEngine, isFileBackedEmbedded bool) Mode {
	if isInMemoryDSN(connStr) {
		return SingleConnection
	}
	if requested == KeepAlive && isServerEngine {
		return KeepAlive
	}
	if requested != Best {
		return requested
	}
	if isFileBackedEmbedded {
		return SingleWriter
	}
	return Standard
}
