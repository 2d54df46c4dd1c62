package dialect

import (
	"fmt"
	"strings"
)

func init() {
	register(Postgres, newPostgresDescriptor)
	register(CockroachDB, newCockroachDescriptor)
}

type postgresBehavior struct {
	kind DatabaseKind
}

func newPostgresDescriptor() *Descriptor {
	return &Descriptor{
		Kind:                         Postgres,
		ParameterMarker:              "$",
		SupportsNamedParameters:      false,
		QuotePrefix:                  `"`,
		QuoteSuffix:                  `"`,
		CompositeIdentifierSeparator: ".",
		ParameterNameMaxLength:       63,
		MaxParameterLimit:            65535,
		MaxOutputParameters:          100,
		ProcWrappingStyle:            ProcWrapPostgreSQL,
		Features: FeatureSet(0).
			With(FeatureOnConflict).
			With(FeatureReturning).
			With(FeatureJSONTypes).
			With(FeatureArrayTypes).
			With(FeatureWindowFns).
			With(FeatureCTE).
			With(FeatureNamespaces).
			With(FeatureSavepoints).
			With(FeatureIdentityColumns).
			With(FeaturePrepare).
			With(FeatureNumberedPositionalParams),
		b: postgresBehavior{kind: Postgres},
	}
}

func newCockroachDescriptor() *Descriptor {
	d := newPostgresDescriptor()
	d.Kind = CockroachDB
	d.ProcWrappingStyle = ProcWrapNone
	d.b = postgresBehavior{kind: CockroachDB}
	return d
}

// session_preamble is empty: read-only intent and other session settings
// are carried as connection-string options (default_transaction_read_only)
// rather than issued as statements, per spec.md §4.1.
func (b postgresBehavior) sessionPreamble(readOnly bool) string { return "" }

func (b postgresBehavior) versionQuery() string { return "SHOW server_version" }

func (b postgresBehavior) parseVersion(raw string) (*Version, error) {
	return ParseDottedVersion(raw)
}

func (b postgresBehavior) determineSQLStandard(v *Version) SQLStandardLevel {
	switch {
	case v.Major >= 9:
		return SQLStandard2011
	case v.Major == 8:
		return SQLStandard2003
	default:
		return SQLStandard99
	}
}

func (b postgresBehavior) resolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error) {
	if b.kind == CockroachDB {
		return LevelSerializable, nil
	}
	switch profile {
	case FastWithRisks:
		return LevelReadCommitted, nil
	case SafeNonBlockingReads:
		return LevelUnspecified, &ErrIsolationUnsupported{
			Kind: b.kind, Profile: profile,
			Reason: "PostgreSQL has no RCSI-equivalent toggle; use FastWithRisks (ReadCommitted, MVCC-backed) or StrictConsistency instead",
		}
	case StrictConsistency:
		return LevelSerializable, nil
	default:
		return LevelSerializable, nil
	}
}

func (b postgresBehavior) upsertClause(table string, keyColumns, valueColumns []string) string {
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

func (b postgresBehavior) upsertIncomingColumn(col string) string {
	return `EXCLUDED."` + col + `"`
}

func (b postgresBehavior) applyBindingRules(spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error {
	return applyUniversalBindingRules(b.kind, spec, logical, value, features)
}

func (b postgresBehavior) isUniqueViolation(err error) bool      { return postgresLikeUniqueViolation(err) }
func (b postgresBehavior) isForeignKeyViolation(err error) bool  { return postgresLikeForeignKeyViolation(err) }
func (b postgresBehavior) isCheckViolation(err error) bool       { return postgresLikeCheckViolation(err) }
