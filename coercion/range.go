package coercion

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/dbcore/dialect"
)

// Range is an inclusive/exclusive bounded pair over a scalar type (the
// shape of Postgres's int4range/numrange/tsrange family and SQL Server's
// planned range types), per spec.md §4.6. Lower/Upper are left as strings
// since the bound's own element type already has its own coercion; Range
// only owns the bracket syntax.
type Range struct {
	Lower, Upper   string
	LowerInclusive bool
	UpperInclusive bool
	LowerUnbounded bool
	UpperUnbounded bool
}

var typeOfRange = reflect.TypeOf(Range{})

// There is no range-type library anywhere in the example corpus (Postgres
// ranges are normally sent as plain text literals by lib/pq callers), so
// this coercion is built directly on strings.Builder/strconv-free parsing
// rather than reaching for a third-party parser that doesn't exist in the
// pack.
func registerRangeCoercion(r *Registry) {
	r.RegisterConverter(typeOfRange, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			rg, ok := value.(Range)
			if !ok {
				return fmt.Errorf("coercion: expected Range, got %T", value)
			}
			spec.DBType = dialect.DBTypeString
			spec.Value = rg.String()
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			switch v := raw.(type) {
			case string:
				return parseRange(v)
			case []byte:
				return parseRange(string(v))
			default:
				return nil, fmt.Errorf("coercion: cannot coerce %T to Range", raw)
			}
		},
	})
}

// String renders the range in Postgres's canonical literal form, e.g.
// "[1,10)" or "(,5]".
func (rg Range) String() string {
	var b strings.Builder
	if rg.LowerInclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if !rg.LowerUnbounded {
		b.WriteString(rg.Lower)
	}
	b.WriteByte(',')
	if !rg.UpperUnbounded {
		b.WriteString(rg.Upper)
	}
	if rg.UpperInclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

func parseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return Range{}, fmt.Errorf("coercion: %q is not a recognized range literal", s)
	}
	var rg Range
	switch s[0] {
	case '[':
		rg.LowerInclusive = true
	case '(':
		rg.LowerInclusive = false
	default:
		return Range{}, fmt.Errorf("coercion: %q has no recognized lower bracket", s)
	}
	switch s[len(s)-1] {
	case ']':
		rg.UpperInclusive = true
	case ')':
		rg.UpperInclusive = false
	default:
		return Range{}, fmt.Errorf("coercion: %q has no recognized upper bracket", s)
	}
	body := s[1 : len(s)-1]
	parts := strings.SplitN(body, ",", 2)
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("coercion: %q is missing the bound separator", s)
	}
	rg.Lower = strings.TrimSpace(parts[0])
	rg.Upper = strings.TrimSpace(parts[1])
	rg.LowerUnbounded = rg.Lower == ""
	rg.UpperUnbounded = rg.Upper == ""
	return rg, nil
}
