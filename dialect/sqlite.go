package dialect

import (
	"fmt"
	"strings"
)

func init() {
	register(SQLite, newSQLiteDescriptor)
	register(DuckDB, newDuckDBDescriptor)
}

type sqliteBehavior struct {
	kind DatabaseKind
}

func newSQLiteDescriptor() *Descriptor {
	return &Descriptor{
		Kind:                         SQLite,
		ParameterMarker:              "@",
		SupportsNamedParameters:      true,
		QuotePrefix:                  `"`,
		QuoteSuffix:                  `"`,
		CompositeIdentifierSeparator: ".",
		ParameterNameMaxLength:       255,
		MaxParameterLimit:            999,
		MaxOutputParameters:          0,
		ProcWrappingStyle:            ProcWrapNone,
		Features: FeatureSet(0).
			With(FeatureOnConflict).
			With(FeatureReturning).
			With(FeatureJSONTypes).
			With(FeatureWindowFns).
			With(FeatureCTE).
			With(FeatureSavepoints).
			With(FeatureIdentityColumns).
			With(FeaturePrepare),
		b: sqliteBehavior{kind: SQLite},
	}
}

func newDuckDBDescriptor() *Descriptor {
	return &Descriptor{
		Kind:                         DuckDB,
		ParameterMarker:              "$",
		SupportsNamedParameters:      true,
		QuotePrefix:                  `"`,
		QuoteSuffix:                  `"`,
		CompositeIdentifierSeparator: ".",
		ParameterNameMaxLength:       63,
		MaxParameterLimit:            100000,
		MaxOutputParameters:          0,
		ProcWrappingStyle:            ProcWrapNone,
		Features: FeatureSet(0).
			With(FeatureOnConflict).
			With(FeatureJSONTypes).
			With(FeatureArrayTypes).
			With(FeatureWindowFns).
			With(FeatureCTE).
			With(FeatureNamespaces).
			With(FeaturePrepare),
		b: sqliteBehavior{kind: DuckDB},
	}
}

// sessionPreamble covers spec.md §4.1's SQLite/DuckDB pragma list:
// foreign_keys=ON always; query_only=1 on every read-only connection
// (SingleWriter's read channel among them); DuckDB read connections get
// read_only=1.
func (b sqliteBehavior) sessionPreamble(readOnly bool) string {
	if b.kind == DuckDB {
		if readOnly {
			return "PRAGMA read_only=1;"
		}
		return ""
	}
	if readOnly {
		return "PRAGMA foreign_keys=ON; PRAGMA query_only=1;"
	}
	return "PRAGMA foreign_keys=ON;"
}

func (b sqliteBehavior) versionQuery() string {
	if b.kind == DuckDB {
		return "PRAGMA version"
	}
	return "SELECT sqlite_version()"
}

func (b sqliteBehavior) parseVersion(raw string) (*Version, error) {
	return ParseDottedVersion(raw)
}

func (b sqliteBehavior) determineSQLStandard(v *Version) SQLStandardLevel {
	if b.kind == DuckDB {
		return SQLStandard2011
	}
	switch {
	case v.Major == 3 && v.Minor >= 25:
		return SQLStandard2008
	default:
		return SQLStandard92
	}
}

func (b sqliteBehavior) resolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error) {
	if b.kind == DuckDB {
		return LevelSnapshot, nil
	}
	switch profile {
	case FastWithRisks:
		return LevelReadUncommitted, nil
	case SafeNonBlockingReads:
		return LevelRepeatableRead, nil
	case StrictConsistency:
		return LevelSerializable, nil
	default:
		return LevelSerializable, nil
	}
}

func (b sqliteBehavior) upsertClause(table string, keyColumns, valueColumns []string) string {
	var sb strings.Builder
	sb.WriteString("ON CONFLICT (")
	for i, k := range keyColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(`"` + k + `"`)
	}
	sb.WriteString(") DO UPDATE SET ")
	for i, c := range valueColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `"%s" = %s`, c, b.upsertIncomingColumn(c))
	}
	return sb.String()
}

func (b sqliteBehavior) upsertIncomingColumn(col string) string {
	return `excluded."` + col + `"`
}

func (b sqliteBehavior) applyBindingRules(spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error {
	return applyUniversalBindingRules(b.kind, spec, logical, value, features)
}

func (b sqliteBehavior) isUniqueViolation(err error) bool     { return sqliteUniqueViolation(err) }
func (b sqliteBehavior) isForeignKeyViolation(err error) bool { return sqliteForeignKeyViolation(err) }
func (b sqliteBehavior) isCheckViolation(err error) bool      { return sqliteCheckViolation(err) }
