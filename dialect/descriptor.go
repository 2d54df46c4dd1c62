package dialect

import (
	"strings"
	"sync"
)

// behavior is the per-engine trait implemented by each built-in variant.
// Dynamic dispatch across the ~10 engines funnels through this single
// interface instead of a type switch scattered across the codebase.
type behavior interface {
	sessionPreamble(readOnly bool) string
	versionQuery() string
	parseVersion(raw string) (*Version, error)
	determineSQLStandard(v *Version) SQLStandardLevel
	resolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error)
	upsertClause(table string, keyColumns, valueColumns []string) string
	upsertIncomingColumn(col string) string
	applyBindingRules(spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error
	isUniqueViolation(err error) bool
	isForeignKeyViolation(err error) bool
	isCheckViolation(err error) bool
}

// Descriptor is the immutable-after-detection dialect record described in
// spec.md §3. Construct one with New; do not build it by hand, since the
// Feature/behavior wiring is variant-specific.
type Descriptor struct {
	Kind DatabaseKind

	ParameterMarker              string
	SupportsNamedParameters      bool
	QuotePrefix                  string
	QuoteSuffix                  string
	CompositeIdentifierSeparator string
	ParameterNameMaxLength       int
	MaxParameterLimit            int
	MaxOutputParameters          int
	ProcWrappingStyle            ProcWrappingStyle
	Features                     FeatureSet

	b behavior

	mu      sync.RWMutex
	product ProductInfo
	// detected guards against DetectInfo being meaningfully invoked twice;
	// a second call is a no-op returning the already-detected info.
	detected bool
}

// registry maps a DatabaseKind to its constructor. Populated by each
// engine's init(), mirroring the teacher's DbProviderFactories replacement
// called for in spec.md §9 (an explicit map, not a global factory).
var registry = map[DatabaseKind]func() *Descriptor{}

func register(kind DatabaseKind, ctor func() *Descriptor) {
	registry[kind] = ctor
}

// New returns a fresh Descriptor for kind. Each call returns an
// independently-detectable Descriptor (ProductInfo is per-instance, not
// shared), since two DatabaseContexts against two different servers of the
// same engine kind may detect different versions.
func New(kind DatabaseKind) *Descriptor {
	ctor, ok := registry[kind]
	if !ok {
		return newUnknownDescriptor()
	}
	return ctor()
}

// Registered returns every DatabaseKind with a built-in variant.
func Registered() []DatabaseKind {
	kinds := make([]DatabaseKind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	return kinds
}

// WrapObjectName splits identifier on CompositeIdentifierSeparator, trims
// whitespace, drops empty segments, wraps each in QuotePrefix/QuoteSuffix
// and rejoins with the separator. Null/empty/whitespace-only input returns
// "".
func (d *Descriptor) WrapObjectName(identifier string) string {
	if strings.TrimSpace(identifier) == "" {
		return ""
	}
	sep := d.CompositeIdentifierSeparator
	if sep == "" {
		sep = "."
	}
	parts := strings.Split(identifier, sep)
	wrapped := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		wrapped = append(wrapped, d.QuotePrefix+p+d.QuoteSuffix)
	}
	if len(wrapped) == 0 {
		return ""
	}
	return strings.Join(wrapped, sep)
}

// MakeParameterName returns ParameterMarker alone for positional dialects;
// otherwise ParameterMarker followed by the normalized raw name. A null
// (empty) raw name returns the bare marker either way.
func (d *Descriptor) MakeParameterName(raw string) string {
	if !d.SupportsNamedParameters || raw == "" {
		return d.ParameterMarker
	}
	return d.ParameterMarker + raw
}

// GetSessionPreamble returns the statements to run once on a freshly opened
// connection to normalize session settings for the given channel.
func (d *Descriptor) GetSessionPreamble(readOnly bool) string {
	return d.b.sessionPreamble(readOnly)
}

// GetVersionQuery returns the scalar query used to detect ProductInfo.
func (d *Descriptor) GetVersionQuery() string {
	return d.b.versionQuery()
}

// ParseVersion parses a server-reported version string.
func (d *Descriptor) ParseVersion(raw string) (*Version, error) {
	return d.b.parseVersion(raw)
}

// DetermineSQLStandard maps a parsed version to a SQL standard level.
func (d *Descriptor) DetermineSQLStandard(v *Version) SQLStandardLevel {
	if v == nil {
		return SQLStandard92
	}
	return d.b.determineSQLStandard(v)
}

// DetectInfo runs the dialect's version query against q; when that fails
// or returns an empty string it falls back to Unknown/Sql92 (there is no
// schema-metadata detection step in between). It never
// returns an error: detection failures are non-fatal per spec.md §4.1 and
// are reported via the ok return instead, so callers can log a
// compatibility warning without aborting context construction.
func (d *Descriptor) DetectInfo(q VersionQuerier) (info ProductInfo, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detected {
		return d.product, true
	}
	defer func() { d.detected = true }()

	raw, err := q.QueryVersionString(d.GetVersionQuery())
	if err != nil || strings.TrimSpace(raw) == "" {
		d.product = unknownProductInfo()
		return d.product, false
	}
	v, err := d.ParseVersion(raw)
	if err != nil {
		d.product = ProductInfo{ProductName: string(d.Kind), RawVersion: raw, SQLStandardLevel: SQLStandard92}
		return d.product, false
	}
	d.product = ProductInfo{
		ProductName:      string(d.Kind),
		RawVersion:       raw,
		ParsedVersion:    v,
		SQLStandardLevel: d.DetermineSQLStandard(v),
	}
	return d.product, true
}

// ProductInfo returns the last-detected product info, or the Unknown
// fallback if DetectInfo has never run.
func (d *Descriptor) ProductInfo() ProductInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.detected {
		return unknownProductInfo()
	}
	return d.product
}

// ResolveIsolation maps a high-level isolation profile to a concrete level
// for this dialect, or fails with ErrIsolationUnsupported.
func (d *Descriptor) ResolveIsolation(profile IsolationProfile, rcsiEnabled bool) (IsolationLevel, error) {
	return d.b.resolveIsolation(profile, rcsiEnabled)
}

// GetUpsertClause returns the full upsert clause for an insert into table
// with the given key and value columns (spec.md §8 scenario 3).
func (d *Descriptor) GetUpsertClause(table string, keyColumns, valueColumns []string) string {
	return d.b.upsertClause(table, keyColumns, valueColumns)
}

// UpsertIncomingColumn returns the engine-native reference to the proposed
// new row's column inside a conflict/update clause.
func (d *Descriptor) UpsertIncomingColumn(col string) string {
	return d.b.upsertIncomingColumn(col)
}

// ApplyBindingRules mutates spec in place per spec.md §4.1's universal
// rules, using logical as the rule-selection hint.
func (d *Descriptor) ApplyBindingRules(spec *ParamSpec, logical LogicalType, value any) error {
	return d.b.applyBindingRules(spec, logical, value, d.Features)
}

// IsUniqueViolation reports whether err resulted from a uniqueness
// constraint violation on this dialect.
func (d *Descriptor) IsUniqueViolation(err error) bool { return err != nil && d.b.isUniqueViolation(err) }

// IsForeignKeyViolation reports whether err resulted from a foreign-key
// constraint violation on this dialect.
func (d *Descriptor) IsForeignKeyViolation(err error) bool {
	return err != nil && d.b.isForeignKeyViolation(err)
}

// IsCheckViolation reports whether err resulted from a check constraint
// violation on this dialect.
func (d *Descriptor) IsCheckViolation(err error) bool { return err != nil && d.b.isCheckViolation(err) }
