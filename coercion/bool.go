package coercion

import (
	"fmt"
	"reflect"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/dbcore/dialect"
)

// truthyLower is a single shared Caser; x/text's Caser is safe for
// concurrent use once constructed (it holds no per-call state), matching
// how the teacher's generated enum validators share one compiled matcher.
var truthyLower = cases.Lower(language.Und)

// truthyStrings lists every engine-agnostic "truthy" token a provider
// might hand back for a boolean-shaped column, per spec.md §4.6.
var truthyStrings = map[string]bool{
	"t": true, "y": true, "1": true, "true": true, "yes": true, "on": true,
	"f": false, "n": false, "0": false, "false": false, "no": false, "off": false,
}

var typeOfBool = reflect.TypeOf(bool(false))

func registerBoolCoercion(r *Registry) {
	c := Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			b, err := toBool(value)
			if err != nil {
				return err
			}
			spec.DBType = dialect.DBTypeBool
			spec.Value = b
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			return toBool(raw)
		},
	}
	r.RegisterConverter(typeOfBool, c)
}

// toBool accepts a native bool or any of truthyStrings' tokens
// (case-insensitively, via x/text/cases rather than strings.ToLower so
// behavior matches the rest of the codebase's locale-aware normalization).
func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, ok := truthyStrings[truthyLower.String(v)]
		if !ok {
			return false, fmt.Errorf("coercion: %q is not a recognized boolean token", v)
		}
		return b, nil
	case []byte:
		return toBool(string(v))
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	default:
		return false, fmt.Errorf("coercion: cannot coerce %T to bool", value)
	}
}
