package dialect

import (
	"fmt"
	"math/big"
)

// DBType is a provider-neutral parameter type tag. container and coercion
// map their own richer type system onto this before handing a ParamSpec to
// a dialect, and dialect maps it back onto the concrete driver value.
type DBType int

const (
	DBTypeUnspecified DBType = iota
	DBTypeString
	DBTypeInt
	DBTypeInt64
	DBTypeFloat64
	DBTypeBool
	DBTypeByte
	DBTypeDecimal
	DBTypeDateTime
	DBTypeDateTime2
	DBTypeDateTimeOffset
	DBTypeBinary
	DBTypeJSON
	DBTypeObject // native array/composite on engines that support it
	DBTypeXML
	DBTypeGuid
	DBTypeNull
)

func (t DBType) String() string {
	switch t {
	case DBTypeString:
		return "String"
	case DBTypeInt:
		return "Int"
	case DBTypeInt64:
		return "Int64"
	case DBTypeFloat64:
		return "Float64"
	case DBTypeBool:
		return "Bool"
	case DBTypeByte:
		return "Byte"
	case DBTypeDecimal:
		return "Decimal"
	case DBTypeDateTime:
		return "DateTime"
	case DBTypeDateTime2:
		return "DateTime2"
	case DBTypeDateTimeOffset:
		return "DateTimeOffset"
	case DBTypeBinary:
		return "Binary"
	case DBTypeJSON:
		return "JSON"
	case DBTypeObject:
		return "Object"
	case DBTypeXML:
		return "XML"
	case DBTypeGuid:
		return "Guid"
	case DBTypeNull:
		return "Null"
	default:
		return "Unspecified"
	}
}

// LogicalType is the application-level shape of a value, used only to pick
// a binding rule; it is coarser than DBType on purpose.
type LogicalType int

const (
	LogicalOther LogicalType = iota
	LogicalBool
	LogicalEnum
	LogicalArray
	LogicalBinary
	LogicalString
	LogicalDateTime
)

// Direction is the parameter direction, mirrored from ADO.NET-style
// provider parameters for procedure calls.
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionInputOutput
	DirectionReturnValue
)

// ParamSpec is the plain data dialect produces for a bound parameter. It
// carries no behavior so container and coercion can embed/convert it
// freely without importing database/sql-specific provider types.
type ParamSpec struct {
	Name      string
	DBType    DBType
	Value     any
	Direction Direction
	Size      int // -1 means "max"
	Precision int
	Scale     int
}

// sizeMaxSentinel is the Size value meaning "max" (e.g. NVARCHAR(MAX),
// TEXT without declared length).
const sizeMaxSentinel = -1

// maxInlineStringLen matches spec.md's "string > 8000 chars" threshold for
// switching to the max-size sentinel.
const maxInlineStringLen = 8000

// maxInlineBinaryLen is the threshold past which binary values on engines
// lacking native binary support get JSON/msgpack-encoded instead.
const maxInlineBinaryLen = 8000

// CreateParameterSpec builds a ParamSpec for value, setting Size to the
// value's logical length (the max sentinel when it exceeds the inline
// threshold) and Precision/Scale when value is a decimal-shaped type (one
// with Coefficient/Exponent methods, such as shopspring's decimal.Decimal).
// Numeric provider-specific "has been set" flags are the caller's concern
// (container re-pools *sql.Named-style parameters); this only fills the
// provider-neutral fields.
func (d *Descriptor) CreateParameterSpec(name string, dbType DBType, value any) ParamSpec {
	spec := ParamSpec{Name: name, DBType: dbType, Value: value}
	switch v := value.(type) {
	case string:
		if len(v) > maxInlineStringLen {
			spec.Size = sizeMaxSentinel
		} else {
			spec.Size = len(v)
		}
	case []byte:
		if len(v) > maxInlineBinaryLen {
			spec.Size = sizeMaxSentinel
		} else {
			spec.Size = len(v)
		}
	case interface {
		Coefficient() *big.Int
		Exponent() int32
	}:
		spec.Precision = len(v.Coefficient().String())
		if e := v.Exponent(); e < 0 {
			spec.Scale = int(-e)
		}
	}
	return spec
}

// ErrUnsupportedTypeBinding is returned when a binding rule has no fallback
// for the given logical type on this dialect.
type ErrUnsupportedTypeBinding struct {
	Kind        DatabaseKind
	LogicalType LogicalType
}

func (e *ErrUnsupportedTypeBinding) Error() string {
	return fmt.Sprintf("dialect: %s cannot bind logical type %d", e.Kind, e.LogicalType)
}

// applyUniversalBindingRules implements spec.md §4.1's engine-keyed rule
// table. It is shared by every built-in dialect variant's ApplyBindingRules
// so the rules live in exactly one place; only SQL Server's variant adds a
// rule of its own ahead of the table (a LogicalDateTime short-circuit that
// sets the same DateTime tag the table would).
func applyUniversalBindingRules(kind DatabaseKind, spec *ParamSpec, logical LogicalType, value any, features FeatureSet) error {
	switch logical {
	case LogicalBool:
		switch kind {
		case MySQL, MariaDB:
			spec.DBType = DBTypeByte
			if value == nil {
				spec.DBType = DBTypeNull
				spec.Value = nil
				return nil
			}
			if b, ok := value.(bool); ok {
				if b {
					spec.Value = byte(1)
				} else {
					spec.Value = byte(0)
				}
			}
		default:
			if value == nil {
				spec.DBType = DBTypeNull
			} else {
				spec.DBType = DBTypeBool
			}
		}
	case LogicalEnum:
		switch kind {
		case Postgres, CockroachDB:
			spec.DBType = DBTypeString
		default:
			spec.DBType = DBTypeInt
		}
	case LogicalArray:
		if kind == Postgres || kind == CockroachDB {
			spec.DBType = DBTypeObject
			return nil
		}
		if features.Has(FeatureUseMsgpack) {
			spec.DBType = DBTypeBinary
			return nil
		}
		spec.DBType = DBTypeJSON
	case LogicalBinary:
		if !features.Has(FeatureArrayTypes) && spec.Size == sizeMaxSentinel {
			if features.Has(FeatureUseMsgpack) {
				spec.DBType = DBTypeBinary
			} else {
				spec.DBType = DBTypeJSON
			}
			return nil
		}
		spec.DBType = DBTypeBinary
	case LogicalString:
		if s, ok := value.(string); ok && len(s) > maxInlineStringLen {
			spec.Size = sizeMaxSentinel
		}
		spec.DBType = DBTypeString
	case LogicalDateTime:
		// Force an explicit DateTime tag so providers don't infer
		// DateTime2/DateTimeOffset on their own.
		spec.DBType = DBTypeDateTime
	default:
		// LogicalOther (and any future addition with no entry above)
		// has no universal rule to apply; the DBType the caller already
		// set stands. ErrUnsupportedTypeBinding is reserved for values
		// a dialect variant explicitly rejects, not for the common case
		// of a plain int/float/decimal/uuid parameter.
	}
	return nil
}
