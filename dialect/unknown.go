package dialect

// unknownBehavior is the degrade-safe fallback when a requested
// DatabaseKind has no registered variant. It never claims a feature it
// cannot honor and always reports SQL-92, per spec.md's guidance that an
// unrecognized engine should behave conservatively rather than guess.
type unknownBehavior struct{}

func newUnknownDescriptor() *Descriptor {
	return &Descriptor{
		Kind:                         Unknown,
		ParameterMarker:              "?",
		SupportsNamedParameters:      false,
		QuotePrefix:                  `"`,
		QuoteSuffix:                  `"`,
		CompositeIdentifierSeparator: ".",
		ParameterNameMaxLength:       0,
		MaxParameterLimit:            0,
		MaxOutputParameters:          0,
		ProcWrappingStyle:            ProcWrapNone,
		Features:                     FeatureSet(0),
		b:                            unknownBehavior{},
	}
}

func (b unknownBehavior) sessionPreamble(readOnly bool) string { return "" }

func (b unknownBehavior) versionQuery() string { return "" }

func (b unknownBehavior) parseVersion(raw string) (*Version, error) {
	return ParseDottedVersion(raw)
}

func (b unknownBehavior) determineSQLStandard(v *Version) SQLStandardLevel {
	return SQLStandard92
}

func (b unknownBehavior) resolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error) {
	return LevelUnspecified, &ErrIsolationUnsupported{
		Kind: Unknown, Profile: profile,
		Reason: "unrecognized database engine has no known isolation mapping",
	}
}

func (b unknownBehavior) upsertClause(table string, keyColumns, valueColumns []string) string {
	return ""
}

func (b unknownBehavior) upsertIncomingColumn(col string) string { return "" }

func (b unknownBehavior) applyBindingRules(spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error {
	return applyUniversalBindingRules(Unknown, spec, logical, value, features)
}

func (b unknownBehavior) isUniqueViolation(err error) bool     { return neverViolation(err) }
func (b unknownBehavior) isForeignKeyViolation(err error) bool { return neverViolation(err) }
func (b unknownBehavior) isCheckViolation(err error) bool      { return neverViolation(err) }
