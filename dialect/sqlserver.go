package dialect

import (
	"fmt"
	"strings"
)

func init() {
	register(SQLServer, newSQLServerDescriptor)
}

type sqlServerBehavior struct{}

func newSQLServerDescriptor() *Descriptor {
	return &Descriptor{
		Kind:                         SQLServer,
		ParameterMarker:              "@",
		SupportsNamedParameters:      true,
		QuotePrefix:                  "[",
		QuoteSuffix:                  "]",
		CompositeIdentifierSeparator: ".",
		ParameterNameMaxLength:       128,
		MaxParameterLimit:            2100,
		MaxOutputParameters:          2100,
		ProcWrappingStyle:            ProcWrapCall,
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
			With(FeatureTemporal).
			With(FeatureSetValuedParams),
		b: sqlServerBehavior{},
	}
}

// sessionPreamble always sets NOCOUNT; the read-only intent is layered on
// by connstrategy issuing the mode's own read-only marker, since SQL
// Server has no single blanket session statement for it (application
// intent is a connection-string key, not a runtime statement).
func (b sqlServerBehavior) sessionPreamble(readOnly bool) string {
	return "SET NOCOUNT ON;"
}

func (b sqlServerBehavior) versionQuery() string {
	return "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))"
}

func (b sqlServerBehavior) parseVersion(raw string) (*Version, error) {
	return ParseDottedVersion(raw)
}

func (b sqlServerBehavior) determineSQLStandard(v *Version) SQLStandardLevel {
	switch {
	case v.Major >= 13: // SQL Server 2016+
		return SQLStandard2016
	case v.Major >= 11: // SQL Server 2012+
		return SQLStandard2011
	default:
		return SQLStandard2003
	}
}

func (b sqlServerBehavior) resolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error) {
	switch profile {
	case FastWithRisks:
		return LevelReadUncommitted, nil
	case SafeNonBlockingReads:
		if !rcsiEnabled {
			return LevelUnspecified, &ErrIsolationUnsupported{
				Kind: SQLServer, Profile: profile,
				Reason: "requires snapshot isolation enabled on the database (ALTER DATABASE ... SET ALLOW_SNAPSHOT_ISOLATION ON)",
			}
		}
		return LevelSnapshot, nil
	case StrictConsistency:
		return LevelSerializable, nil
	default:
		return LevelSerializable, nil
	}
}

func (b sqlServerBehavior) upsertClause(table string, keyColumns, valueColumns []string) string {
	var sb strings.Builder
	sb.WriteString("MERGE ")
	sb.WriteString("[" + table + "] AS t USING (SELECT ")
	for i, c := range append(append([]string{}, keyColumns...), valueColumns...) {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "@%s AS [%s]", c, c)
	}
	sb.WriteString(") AS s ON ")
	for i, k := range keyColumns {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "t.[%s] = s.[%s]", k, k)
	}
	sb.WriteString(" WHEN MATCHED THEN UPDATE SET ")
	for i, c := range valueColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "t.[%s] = %s", c, b.upsertIncomingColumn(c))
	}
	sb.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	allCols := append(append([]string{}, keyColumns...), valueColumns...)
	for i, c := range allCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "[%s]", c)
	}
	sb.WriteString(") VALUES (")
	for i, c := range allCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "s.[%s]", c)
	}
	sb.WriteString(");")
	return sb.String()
}

func (b sqlServerBehavior) upsertIncomingColumn(col string) string {
	return "s.[" + col + "]"
}

func (b sqlServerBehavior) applyBindingRules(spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error {
	if logical == LogicalDateTime {
		spec.DBType = DBTypeDateTime
		return nil
	}
	return applyUniversalBindingRules(SQLServer, spec, logical, value, features)
}

func (b sqlServerBehavior) isUniqueViolation(err error) bool {
	return containsAny(err.Error(), "Violation of UNIQUE KEY constraint", "Violation of PRIMARY KEY constraint")
}

func (b sqlServerBehavior) isForeignKeyViolation(err error) bool {
	return containsAny(err.Error(), "conflicted with the REFERENCE constraint", "conflicted with the FOREIGN KEY constraint")
}

func (b sqlServerBehavior) isCheckViolation(err error) bool {
	return containsAny(err.Error(), "conflicted with the CHECK constraint")
}
