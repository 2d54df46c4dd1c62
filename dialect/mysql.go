package dialect

import (
	"fmt"
	"strings"
)

func init() {
	register(MySQL, func() *Descriptor { return newMySQLDescriptor(MySQL) })
	register(MariaDB, func() *Descriptor { return newMySQLDescriptor(MariaDB) })
}

type mysqlBehavior struct {
	kind DatabaseKind
}

func newMySQLDescriptor(kind DatabaseKind) *Descriptor {
	features := FeatureSet(0).
		With(FeatureOnDuplicateKey).
		With(FeatureJSONTypes).
		With(FeatureWindowFns).
		With(FeatureCTE).
		With(FeatureNamespaces).
		With(FeatureSavepoints).
		With(FeatureIdentityColumns).
		With(FeaturePrepare)
	if kind == MariaDB {
		features = features.With(FeatureReturning)
	}
	return &Descriptor{
		Kind:                         kind,
		ParameterMarker:              "?",
		SupportsNamedParameters:      false,
		QuotePrefix:                  "`",
		QuoteSuffix:                  "`",
		CompositeIdentifierSeparator: ".",
		ParameterNameMaxLength:       64,
		MaxParameterLimit:            65535,
		MaxOutputParameters:          0,
		ProcWrappingStyle:            ProcWrapCall,
		Features:                     features,
		b:                            mysqlBehavior{kind: kind},
	}
}

func (b mysqlBehavior) sessionPreamble(readOnly bool) string {
	if readOnly {
		return "SET SESSION TRANSACTION READ ONLY;"
	}
	return ""
}

func (b mysqlBehavior) versionQuery() string { return "SELECT VERSION()" }

func (b mysqlBehavior) parseVersion(raw string) (*Version, error) {
	// MySQL reports e.g. "8.0.36-0ubuntu0.22.04.1"; MariaDB forks report
	// a MySQL-compatible prefix followed by "-MariaDB-...".
	trimmed := strings.SplitN(raw, "-", 2)[0]
	return ParseDottedVersion(trimmed)
}

func (b mysqlBehavior) determineSQLStandard(v *Version) SQLStandardLevel {
	switch {
	case v.Major >= 8:
		return SQLStandard2011
	case v.Major == 5 && v.Minor >= 7:
		return SQLStandard2008
	default:
		return SQLStandard99
	}
}

func (b mysqlBehavior) resolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error) {
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

func (b mysqlBehavior) upsertClause(table string, keyColumns, valueColumns []string) string {
	var sb strings.Builder
	sb.WriteString("ON DUPLICATE KEY UPDATE ")
	for i, c := range valueColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "`%s` = %s", c, b.upsertIncomingColumn(c))
	}
	return sb.String()
}

func (b mysqlBehavior) upsertIncomingColumn(col string) string {
	return "VALUES(`" + col + "`)"
}

func (b mysqlBehavior) applyBindingRules(spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error {
	return applyUniversalBindingRules(b.kind, spec, logical, value, features)
}

func (b mysqlBehavior) isUniqueViolation(err error) bool     { return mysqlUniqueViolation(err) }
func (b mysqlBehavior) isForeignKeyViolation(err error) bool { return mysqlForeignKeyViolation(err) }
func (b mysqlBehavior) isCheckViolation(err error) bool      { return mysqlCheckViolation(err) }
