package coercion

import (
	"fmt"
	"reflect"

	"github.com/sosodev/duration"

	"github.com/syssam/dbcore/dialect"
)

// Interval is an ISO 8601 duration, covering both the year-month class
// (calendar-relative, e.g. "P1Y2M") and the day-second class (fixed
// length, e.g. "PT3H4M") a provider's INTERVAL column may report, per
// spec.md §4.6.
type Interval struct {
	duration.Duration
}

var typeOfInterval = reflect.TypeOf(Interval{})

func registerIntervalCoercion(r *Registry) {
	r.RegisterConverter(typeOfInterval, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			iv, ok := value.(Interval)
			if !ok {
				return fmt.Errorf("coercion: expected Interval, got %T", value)
			}
			spec.DBType = dialect.DBTypeString
			spec.Value = iv.ToISOString()
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			s, ok := raw.(string)
			if !ok {
				if b, ok := raw.([]byte); ok {
					s = string(b)
				} else {
					return nil, fmt.Errorf("coercion: cannot coerce %T to Interval", raw)
				}
			}
			d, err := duration.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("coercion: parsing ISO 8601 interval %q: %w", s, err)
			}
			return Interval{Duration: *d}, nil
		},
	})
}
