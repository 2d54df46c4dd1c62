// Package coercion maps Go types onto dialect parameters and back,
// grounded on the teacher's ent/dialect/sql field-value conventions
// (scanning driver values into typed Go fields, binding typed Go values
// into driver parameters) generalized from ent's fixed per-field codegen
// into a runtime registry: a general (type) mapping, a (type, dialect)
// override, and a bounded reader-plan cache, none of which ent needs
// since its codegen already knows every field's shape at compile time.
package coercion

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/syssam/dbcore/dialect"
)

// Coercion configures a provider parameter from a Go value and reads a
// driver-returned value back into its Go representation. Either func may
// be nil: a write-only Coercion (ConfigureParam only) supports binding
// but not reading, and vice versa.
type Coercion struct {
	// ConfigureParam sets spec.Value, DBType, Size, Precision and Scale
	// from value.
	ConfigureParam func(spec *dialect.ParamSpec, value any) error
	// ReadValue converts a raw driver-scanned value into this
	// coercion's target Go representation.
	ReadValue func(raw any) (any, error)
}

type overrideKey struct {
	t    reflect.Type
	kind dialect.DatabaseKind
}

type cacheEntry struct {
	coercion Coercion
	found    bool
	version  uint64
}

// Registry is the thread-safe, extensible type/coercion mapping described
// in spec.md §4.6. The zero value is not usable; construct one with
// NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	general   map[reflect.Type]Coercion
	overrides map[overrideKey]Coercion
	version   atomic.Uint64

	cacheMu sync.Mutex
	cache   map[overrideKey]cacheEntry
}

// NewRegistry returns a Registry preloaded with the built-in coercions
// (bool, decimal, DateTime/DateTimeOffset, JSON, spatial, intervals,
// ranges, RowVersion, msgpack fallback). Callers add or override from
// there with RegisterMapping/RegisterConverter.
func NewRegistry() *Registry {
	r := &Registry{
		general:   map[reflect.Type]Coercion{},
		overrides: map[overrideKey]Coercion{},
		cache:     map[overrideKey]cacheEntry{},
	}
	registerBuiltins(r)
	return r
}

// RegisterMapping adds or replaces the (targetType, dialect) override
// coercion, preferred over any general mapping for that type. Bumps the
// version counter so in-flight cached resolutions recompute.
func (r *Registry) RegisterMapping(targetType reflect.Type, kind dialect.DatabaseKind, c Coercion) {
	r.mu.Lock()
	r.overrides[overrideKey{targetType, kind}] = c
	r.mu.Unlock()
	r.version.Add(1)
}

// RegisterConverter adds or replaces the general (targetType) coercion
// used when no dialect-specific override exists.
func (r *Registry) RegisterConverter(targetType reflect.Type, c Coercion) {
	r.mu.Lock()
	r.general[targetType] = c
	r.mu.Unlock()
	r.version.Add(1)
}

// resolve returns the coercion for (targetType, kind), preferring a
// dialect override, falling back to the general mapping. The result is
// memoized per (targetType, kind) stamped with the version seen at cache
// time; a later read whose stamp no longer matches the live version
// recomputes instead of trusting stale data, satisfying spec.md §4.6's
// "eventually converges to the latest registration" guarantee under
// concurrent registration.
func (r *Registry) resolve(targetType reflect.Type, kind dialect.DatabaseKind) (Coercion, bool) {
	key := overrideKey{targetType, kind}
	curVersion := r.version.Load()

	r.cacheMu.Lock()
	if entry, ok := r.cache[key]; ok && entry.version == curVersion {
		r.cacheMu.Unlock()
		return entry.coercion, entry.found
	}
	r.cacheMu.Unlock()

	r.mu.RLock()
	c, found := r.overrides[key]
	if !found {
		c, found = r.general[targetType]
	}
	r.mu.RUnlock()

	r.cacheMu.Lock()
	r.cache[key] = cacheEntry{coercion: c, found: found, version: curVersion}
	r.cacheMu.Unlock()
	return c, found
}

// TryConfigureParameter sets parameter.Value to DBNull for a nil value,
// otherwise applies the registered coercion (if any) for targetType on
// kind, filling DBType/Size/Precision/Scale. It returns false only when
// no mapping or converter is registered for targetType, letting the
// caller fall back to the dialect's generic binding rules.
func (r *Registry) TryConfigureParameter(spec *dialect.ParamSpec, targetType reflect.Type, value any, d *dialect.Descriptor) bool {
	if value == nil || isNilPointer(value) {
		spec.Value = nil
		spec.DBType = dialect.DBTypeNull
		return true
	}
	c, found := r.resolve(targetType, d.Kind)
	if !found || c.ConfigureParam == nil {
		return false
	}
	if err := c.ConfigureParam(spec, value); err != nil {
		return false
	}
	return true
}

// ReadValue converts raw into targetType's Go representation using the
// registered coercion for (targetType, kind), or returns raw unchanged
// when no coercion's ReadValue is registered.
func (r *Registry) ReadValue(raw any, targetType reflect.Type, d *dialect.Descriptor) (any, error) {
	c, found := r.resolve(targetType, d.Kind)
	if !found || c.ReadValue == nil {
		return raw, nil
	}
	return c.ReadValue(raw)
}

func isNilPointer(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
