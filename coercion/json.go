package coercion

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/syssam/dbcore/dialect"
)

// JSONValue is a document/element/string-agnostic JSON payload: callers
// bind a Go value (struct, map, slice, or a pre-encoded string) and read
// back the raw encoded bytes, matching spec.md §4.6's "document/element/
// string round-tripping". There is no general-purpose structured JSON
// library in the example corpus beyond the standard library, so this
// coercion is built directly on encoding/json.
type JSONValue struct {
	Raw []byte
}

var typeOfJSONValue = reflect.TypeOf(JSONValue{})

func registerJSONCoercion(r *Registry) {
	r.RegisterConverter(typeOfJSONValue, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			jv, ok := value.(JSONValue)
			if !ok {
				return fmt.Errorf("coercion: expected JSONValue, got %T", value)
			}
			spec.DBType = dialect.DBTypeJSON
			spec.Value = string(jv.Raw)
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			switch v := raw.(type) {
			case string:
				return JSONValue{Raw: []byte(v)}, nil
			case []byte:
				return JSONValue{Raw: v}, nil
			default:
				return nil, fmt.Errorf("coercion: cannot coerce %T to JSONValue", raw)
			}
		},
	})
}

// MarshalJSONValue is a convenience for callers binding a native Go value
// as a JSON parameter instead of pre-encoding it themselves.
func MarshalJSONValue(v any) (JSONValue, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return JSONValue{}, fmt.Errorf("coercion: marshaling JSON value: %w", err)
	}
	return JSONValue{Raw: raw}, nil
}
