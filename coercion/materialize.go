package coercion

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/syssam/dbcore/dialect"
)

// MaterializeOptions selects a row-materialization variant for a given
// target type: ColumnsOnly skips result columns with no matching field
// instead of erroring, and EnumParseMode picks how enum-typed columns are read
// (left as a free-form string since enum representation is caller-owned,
// mirroring the dialect-conditional string/int split in
// apply_binding_rules for enum values).
type MaterializeOptions struct {
	ColumnsOnly   bool
	EnumParseMode string
}

// fieldPlan is one (column ordinal, struct field, read coercion) entry
// computed once per distinct schema and reused for every row.
type fieldPlan struct {
	ordinal    int
	fieldIndex []int
	fieldType  reflect.Type
}

// Plan is the cached, immutable column→field mapping described in
// spec.md's "Reader materialization plan": built once per distinct
// (target type, schema, options) combination and invoked once per row.
type Plan struct {
	fields  []fieldPlan
	columns int
}

// ScanInto reads the current row of rows into a newly addressed value of
// targetType, applying each field's registered coercion. rows.Scan is
// called exactly once; per-row column values are read into a raw `any`
// slice first so coercions that expect a driver-native shape (string,
// []byte, int64, float64, time.Time) see it unmodified.
func (p *Plan) ScanInto(rows *sql.Rows, targetType reflect.Type, registry *Registry, d *dialect.Descriptor) (reflect.Value, error) {
	raws := make([]any, p.columns)
	scanDest := make([]any, p.columns)
	for i := range raws {
		scanDest[i] = &raws[i]
	}
	if err := rows.Scan(scanDest...); err != nil {
		return reflect.Value{}, fmt.Errorf("coercion: materialize: scan: %w", err)
	}

	out := reflect.New(targetType).Elem()
	for _, f := range p.fields {
		raw := raws[f.ordinal]
		if raw == nil {
			continue
		}
		converted, err := registry.ReadValue(raw, f.fieldType, d)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("coercion: materialize: field %d: %w", f.ordinal, err)
		}
		fv := out.FieldByIndex(f.fieldIndex)
		if err := assign(fv, converted); err != nil {
			return reflect.Value{}, fmt.Errorf("coercion: materialize: field %d: %w", f.ordinal, err)
		}
	}
	return out, nil
}

func assign(fv reflect.Value, value any) error {
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if fv.Kind() == reflect.Ptr {
		if rv.Type() != fv.Type().Elem() {
			if !rv.Type().ConvertibleTo(fv.Type().Elem()) {
				return fmt.Errorf("cannot assign %s into %s", rv.Type(), fv.Type())
			}
			rv = rv.Convert(fv.Type().Elem())
		}
		ptr := reflect.New(fv.Type().Elem())
		ptr.Elem().Set(rv)
		fv.Set(ptr)
		return nil
	}
	if rv.Type() != fv.Type() {
		if !rv.Type().ConvertibleTo(fv.Type()) {
			return fmt.Errorf("cannot assign %s into %s", rv.Type(), fv.Type())
		}
		rv = rv.Convert(fv.Type())
	}
	fv.Set(rv)
	return nil
}

type planKey struct {
	targetType    reflect.Type
	schemaHash    string
	columnsOnly   bool
	enumParseMode string
}

// Materializer builds and caches reader materialization plans. It is
// process-wide scoped per spec.md §5 ("the reader plan cache is
// process-wide, bounded, and must support explicit clear() for tests"),
// backed by an approximate-LRU cache rather than a hand-rolled eviction
// list, the same bounded-cache shape the teacher's own dependency
// closure already reaches for (examples/shop and examples/fullgql both
// pull in hashicorp/golang-lru for codegen/query caching).
type Materializer struct {
	cache *lru.Cache[planKey, *Plan]
}

// NewMaterializer returns a Materializer whose plan cache holds at most
// capacity entries, evicting the least recently used plan once full.
func NewMaterializer(capacity int) *Materializer {
	c, err := lru.New[planKey, *Plan](capacity)
	if err != nil {
		// Only returned for capacity <= 0; fall back to a single-entry
		// cache rather than a nil one so callers always get a usable
		// Materializer.
		c, _ = lru.New[planKey, *Plan](1)
	}
	return &Materializer{cache: c}
}

// Clear empties the plan cache. Exposed for tests that need a known
// cold-cache starting point.
func (m *Materializer) Clear() {
	m.cache.Purge()
}

// Len reports how many plans are currently cached.
func (m *Materializer) Len() int {
	return m.cache.Len()
}

// BuildPlan resolves the materialization plan for targetType against
// rows' current result-set schema, building and caching it on first use.
// rows.ColumnTypes is called exactly once per call to BuildPlan — by
// construction this means once per reader, not once per row — satisfying
// the "GetFieldType/GetName hoisted out of the row loop" requirement:
// callers fetch the plan once before iterating rows.Next, then reuse it
// for every row via Plan.ScanInto.
func (m *Materializer) BuildPlan(rows *sql.Rows, targetType reflect.Type, opts MaterializeOptions) (*Plan, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("coercion: materialize: column types: %w", err)
	}

	key := planKey{
		targetType:    targetType,
		schemaHash:    schemaHash(cols),
		columnsOnly:   opts.ColumnsOnly,
		enumParseMode: opts.EnumParseMode,
	}
	if plan, ok := m.cache.Get(key); ok {
		return plan, nil
	}

	plan, err := buildPlan(cols, targetType, opts)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, plan)
	return plan, nil
}

func buildPlan(cols []*sql.ColumnType, targetType reflect.Type, opts MaterializeOptions) (*Plan, error) {
	if targetType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("coercion: materialize: target type %s is not a struct", targetType)
	}

	byColumn := fieldsByColumnName(targetType)
	fields := make([]fieldPlan, 0, len(cols))
	for i, col := range cols {
		idx, ok := byColumn[strings.ToLower(col.Name())]
		if !ok {
			if opts.ColumnsOnly {
				continue
			}
			return nil, fmt.Errorf("coercion: materialize: no field on %s maps to column %q", targetType, col.Name())
		}
		fields = append(fields, fieldPlan{
			ordinal:    i,
			fieldIndex: idx,
			fieldType:  targetType.FieldByIndex(idx).Type,
		})
	}
	return &Plan{fields: fields, columns: len(cols)}, nil
}

// fieldsByColumnName maps lower-cased column names to a struct field
// index, preferring an explicit `db:"..."` tag and falling back to the
// field's own name.
func fieldsByColumnName(t reflect.Type) map[string][]int {
	out := make(map[string][]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("db"); ok && tag != "" && tag != "-" {
			name = tag
		}
		out[strings.ToLower(name)] = f.Index
	}
	return out
}

// schemaHash identifies a result-set shape by column name and declared
// database type, so two queries with the same projection share a plan
// and a changed projection forces a rebuild.
func schemaHash(cols []*sql.ColumnType) string {
	h := sha256.New()
	for _, col := range cols {
		h.Write([]byte(col.Name()))
		h.Write([]byte{0})
		h.Write([]byte(col.DatabaseTypeName()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
