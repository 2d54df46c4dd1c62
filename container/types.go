package container

import (
	"reflect"
	"time"

	"github.com/syssam/dbcore/dialect"
)

// Re-exported for callers that only need the logical-type vocabulary
// without importing dialect directly.
const (
	LogicalOther    = dialect.LogicalOther
	LogicalBool     = dialect.LogicalBool
	LogicalEnum     = dialect.LogicalEnum
	LogicalArray    = dialect.LogicalArray
	LogicalBinary   = dialect.LogicalBinary
	LogicalString   = dialect.LogicalString
	LogicalDateTime = dialect.LogicalDateTime
)

// enumValue is implemented by generated enum types across the example
// pack's entity layer (String() plus a marker method is the common
// shape); container only needs String() to detect "this looks like an
// enum" when no richer hint is available.
type enumValue interface{ String() string }

func isSliceValue(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false // byte slices are LogicalBinary, not LogicalArray
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

// inferLogicalType derives the coarse logical shape AddParameter/
// SetParameterValue need to select a binding rule, preferring an
// explicit dbType hint from the caller and falling back to the Go type
// of value.
func inferLogicalType(dbType dialect.DBType, value any) dialect.LogicalType {
	switch dbType {
	case dialect.DBTypeBool:
		return dialect.LogicalBool
	case dialect.DBTypeDateTime, dialect.DBTypeDateTime2, dialect.DBTypeDateTimeOffset:
		return dialect.LogicalDateTime
	case dialect.DBTypeBinary:
		return dialect.LogicalBinary
	case dialect.DBTypeString:
		return dialect.LogicalString
	}
	if value == nil {
		return dialect.LogicalOther
	}
	switch v := value.(type) {
	case bool:
		return dialect.LogicalBool
	case []byte:
		return dialect.LogicalBinary
	case string:
		return dialect.LogicalString
	case time.Time:
		return dialect.LogicalDateTime
	case enumValue:
		_ = v
		return dialect.LogicalEnum
	}
	if isSliceValue(value) {
		return dialect.LogicalArray
	}
	return dialect.LogicalOther
}
