package dialect

import (
	"fmt"
	"strings"
)

func init() {
	register(Firebird, newFirebirdDescriptor)
}

type firebirdBehavior struct{}

func newFirebirdDescriptor() *Descriptor {
	return &Descriptor{
		Kind:                         Firebird,
		ParameterMarker:              "?",
		SupportsNamedParameters:      false,
		QuotePrefix:                  `"`,
		QuoteSuffix:                  `"`,
		CompositeIdentifierSeparator: ".",
		ParameterNameMaxLength:       31,
		MaxParameterLimit:            1500,
		MaxOutputParameters:          0,
		ProcWrappingStyle:            ProcWrapExecuteProcedure,
		Features: FeatureSet(0).
			With(FeatureMerge).
			With(FeatureReturning).
			With(FeatureWindowFns).
			With(FeatureCTE).
			With(FeatureSavepoints).
			With(FeatureIdentityColumns).
			With(FeaturePrepare),
		b: firebirdBehavior{},
	}
}

func (b firebirdBehavior) sessionPreamble(readOnly bool) string {
	if readOnly {
		return "SET TRANSACTION READ ONLY;"
	}
	return ""
}

func (b firebirdBehavior) versionQuery() string {
	return "SELECT rdb$get_context('SYSTEM', 'ENGINE_VERSION') FROM rdb$database"
}

func (b firebirdBehavior) parseVersion(raw string) (*Version, error) {
	return ParseDottedVersion(raw)
}

func (b firebirdBehavior) determineSQLStandard(v *Version) SQLStandardLevel {
	switch {
	case v.Major >= 3:
		return SQLStandard2008
	default:
		return SQLStandard2003
	}
}

func (b firebirdBehavior) resolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error) {
	switch profile {
	case FastWithRisks:
		return LevelReadCommitted, nil
	case SafeNonBlockingReads:
		return LevelReadCommitted, nil
	case StrictConsistency:
		return LevelSerializable, nil
	default:
		return LevelSerializable, nil
	}
}

// upsertClause targets Firebird 3+'s UPDATE OR INSERT, simpler than a
// MERGE but equivalent for the single-row-keyed-upsert shape spec.md
// requires.
func (b firebirdBehavior) upsertClause(table string, keyColumns, valueColumns []string) string {
	var sb strings.Builder
	allCols := append(append([]string{}, keyColumns...), valueColumns...)
	sb.WriteString("UPDATE OR INSERT INTO ")
	sb.WriteString(`"` + table + `" (`)
	for i, c := range allCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `"%s"`, c)
	}
	sb.WriteString(") VALUES (")
	for i := range allCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}
	sb.WriteString(") MATCHING (")
	for i, k := range keyColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, `"%s"`, k)
	}
	sb.WriteString(")")
	return sb.String()
}

func (b firebirdBehavior) upsertIncomingColumn(col string) string {
	return "?"
}

func (b firebirdBehavior) applyBindingRules(spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error {
	return applyUniversalBindingRules(Firebird, spec, logical, value, features)
}

func (b firebirdBehavior) isUniqueViolation(err error) bool {
	return containsAny(err.Error(), "violation of PRIMARY or UNIQUE KEY constraint", "attempt to store duplicate value")
}

func (b firebirdBehavior) isForeignKeyViolation(err error) bool {
	return containsAny(err.Error(), "violation of FOREIGN KEY constraint")
}

func (b firebirdBehavior) isCheckViolation(err error) bool {
	return containsAny(err.Error(), "Operation violates CHECK constraint")
}
