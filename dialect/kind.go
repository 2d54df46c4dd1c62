package dialect

// DatabaseKind identifies a supported SQL engine. It is a plain string so
// callers can log it and compare it against the package constants without
// a type assertion.
type DatabaseKind string

const (
	SQLServer   DatabaseKind = "sqlserver"
	Postgres    DatabaseKind = "postgres"
	MySQL       DatabaseKind = "mysql"
	MariaDB     DatabaseKind = "mariadb"
	SQLite      DatabaseKind = "sqlite"
	Oracle      DatabaseKind = "oracle"
	Firebird    DatabaseKind = "firebird"
	CockroachDB DatabaseKind = "cockroachdb"
	DuckDB      DatabaseKind = "duckdb"
	Unknown     DatabaseKind = "unknown"
)

// ProcWrappingStyle is the syntax a dialect uses to invoke a stored
// procedure or function.
type ProcWrappingStyle int

const (
	ProcWrapNone ProcWrappingStyle = iota
	ProcWrapCall
	ProcWrapExecuteProcedure
	ProcWrapPostgreSQL
	ProcWrapOracle
)

func (s ProcWrappingStyle) String() string {
	switch s {
	case ProcWrapNone:
		return "none"
	case ProcWrapCall:
		return "call"
	case ProcWrapExecuteProcedure:
		return "execute_procedure"
	case ProcWrapPostgreSQL:
		return "postgresql"
	case ProcWrapOracle:
		return "oracle"
	default:
		return "unknown"
	}
}

// Feature is a capability bit. Descriptors expose a FeatureSet so callers
// can branch on capability instead of engine identity.
type Feature uint64

const (
	FeatureNamedParams Feature = 1 << iota
	FeatureMerge
	FeatureOnConflict
	FeatureOnDuplicateKey
	FeatureReturning
	FeatureJSONTypes
	FeatureArrayTypes
	FeatureWindowFns
	FeatureCTE
	FeatureNamespaces
	FeatureSavepoints
	FeatureIdentityColumns
	FeaturePrepare
	FeatureXMLTypes
	FeatureTemporal
	FeatureSetValuedParams
	// FeatureUseMsgpack marks dialects that prefer a compact msgpack
	// encoding over a JSON string for the binary/array fallback path
	// (SPEC_FULL.md §11). Not set by any built-in dialect; available for
	// callers to opt a custom variant into it.
	FeatureUseMsgpack
	// FeatureNumberedPositionalParams marks positional (non-named)
	// dialects whose marker is followed by a 1-based bind ordinal
	// ("$1", "$2", ...), as opposed to an anonymous positional marker
	// repeated verbatim for every parameter ("?", "?", ...).
	FeatureNumberedPositionalParams
)

// FeatureSet is a bitmask of Feature flags.
type FeatureSet Feature

// Has reports whether every bit in flag is set.
func (s FeatureSet) Has(flag Feature) bool {
	return Feature(s)&flag == flag
}

// With returns a copy of s with flag set.
func (s FeatureSet) With(flag Feature) FeatureSet {
	return FeatureSet(Feature(s) | flag)
}

// Without returns a copy of s with flag cleared.
func (s FeatureSet) Without(flag Feature) FeatureSet {
	return FeatureSet(Feature(s) &^ flag)
}
