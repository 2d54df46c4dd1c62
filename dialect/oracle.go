package dialect

import (
	"fmt"
	"strings"
)

func init() {
	register(Oracle, newOracleDescriptor)
}

type oracleBehavior struct{}

func newOracleDescriptor() *Descriptor {
	return &Descriptor{
		Kind:                         Oracle,
		ParameterMarker:              ":",
		SupportsNamedParameters:      true,
		QuotePrefix:                  `"`,
		QuoteSuffix:                  `"`,
		CompositeIdentifierSeparator: ".",
		ParameterNameMaxLength:       30,
		MaxParameterLimit:            65535,
		MaxOutputParameters:          0,
		ProcWrappingStyle:            ProcWrapOracle,
		Features: FeatureSet(0).
			With(FeatureMerge).
			With(FeatureReturning).
			With(FeatureWindowFns).
			With(FeatureCTE).
			With(FeatureNamespaces).
			With(FeatureSavepoints).
			With(FeatureIdentityColumns).
			With(FeaturePrepare).
			With(FeatureXMLTypes).
			With(FeatureTemporal),
		b: oracleBehavior{},
	}
}

func (b oracleBehavior) sessionPreamble(readOnly bool) string {
	if readOnly {
		return "SET TRANSACTION READ ONLY"
	}
	return ""
}

func (b oracleBehavior) versionQuery() string {
	return "SELECT version FROM product_component_version WHERE product LIKE 'Oracle Database%'"
}

func (b oracleBehavior) parseVersion(raw string) (*Version, error) {
	return ParseDottedVersion(raw)
}

func (b oracleBehavior) determineSQLStandard(v *Version) SQLStandardLevel {
	switch {
	case v.Major >= 12:
		return SQLStandard2011
	case v.Major >= 11:
		return SQLStandard2008
	default:
		return SQLStandard2003
	}
}

func (b oracleBehavior) resolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error) {
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

// upsertClause targets MERGE, Oracle's only upsert primitive; there is
// no ON CONFLICT / ON DUPLICATE KEY analogue.
func (b oracleBehavior) upsertClause(table string, keyColumns, valueColumns []string) string {
	var sb strings.Builder
	sb.WriteString("MERGE INTO ")
	sb.WriteString(`"` + table + `" t USING (SELECT `)
	allCols := append(append([]string{}, keyColumns...), valueColumns...)
	for i, c := range allCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, ":%s AS \"%s\"", c, c)
	}
	sb.WriteString(" FROM dual) s ON (")
	for i, k := range keyColumns {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "t.\"%s\" = s.\"%s\"", k, k)
	}
	sb.WriteString(") WHEN MATCHED THEN UPDATE SET ")
	for i, c := range valueColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "t.\"%s\" = %s", c, b.upsertIncomingColumn(c))
	}
	sb.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	for i, c := range allCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "\"%s\"", c)
	}
	sb.WriteString(") VALUES (")
	for i, c := range allCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "s.\"%s\"", c)
	}
	sb.WriteString(")")
	return sb.String()
}

func (b oracleBehavior) upsertIncomingColumn(col string) string {
	return `s."` + col + `"`
}

func (b oracleBehavior) applyBindingRules(spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error {
	return applyUniversalBindingRules(Oracle, spec, logical, value, features)
}

func (b oracleBehavior) isUniqueViolation(err error) bool {
	return containsAny(err.Error(), "ORA-00001")
}

func (b oracleBehavior) isForeignKeyViolation(err error) bool {
	return containsAny(err.Error(), "ORA-02291", "ORA-02292")
}

func (b oracleBehavior) isCheckViolation(err error) bool {
	return containsAny(err.Error(), "ORA-02290")
}
