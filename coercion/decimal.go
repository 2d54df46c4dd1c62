package coercion

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"

	"github.com/syssam/dbcore/dialect"
)

var typeOfDecimal = reflect.TypeOf(decimal.Decimal{})

// registerDecimalCoercion wires decimal.Decimal, recovering Precision
// (total significant digits) and Scale (digits after the point) from the
// value itself so callers never have to declare them up front, matching
// spec.md §4.6's "decimal with precision recovery".
func registerDecimalCoercion(r *Registry) {
	c := Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			d, err := asDecimal(value)
			if err != nil {
				return err
			}
			spec.DBType = dialect.DBTypeDecimal
			spec.Value = d.String()
			spec.Scale = int(d.Exponent() * -1)
			if spec.Scale < 0 {
				spec.Scale = 0
			}
			spec.Precision = len(d.Coefficient().String())
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			return asDecimal(raw)
		},
	}
	r.RegisterConverter(typeOfDecimal, c)
}

func asDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("coercion: cannot coerce %T to decimal", value)
	}
}
