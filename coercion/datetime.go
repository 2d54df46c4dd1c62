package coercion

import (
	"fmt"
	"time"

	"github.com/syssam/dbcore/dialect"
)

// DateTimeOffset preserves the original UTC offset alongside the instant,
// since normalizing to UTC (as the plain DateTime coercion does) would
// lose information a caller round-tripping a provider DATETIMEOFFSET
// column needs back.
type DateTimeOffset struct {
	time.Time
}

// registerDateTimeCoercion wires time.Time (normalized to UTC, preserving
// only the instant) and DateTimeOffset (preserving the original offset),
// per spec.md §4.6.
func registerDateTimeCoercion(r *Registry) {
	r.RegisterConverter(typeOfTime, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			t, err := asTime(value)
			if err != nil {
				return err
			}
			spec.DBType = dialect.DBTypeDateTime2
			spec.Value = t.UTC()
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			t, err := asTime(raw)
			if err != nil {
				return nil, err
			}
			return t.UTC(), nil
		},
	})

	r.RegisterConverter(typeOfDateTimeOffset, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			dto, ok := value.(DateTimeOffset)
			if !ok {
				return fmt.Errorf("coercion: expected DateTimeOffset, got %T", value)
			}
			spec.DBType = dialect.DBTypeDateTimeOffset
			spec.Value = dto.Format(time.RFC3339Nano)
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			switch v := raw.(type) {
			case string:
				t, err := time.Parse(time.RFC3339Nano, v)
				if err != nil {
					return nil, fmt.Errorf("coercion: parsing DateTimeOffset: %w", err)
				}
				return DateTimeOffset{t}, nil
			case time.Time:
				return DateTimeOffset{v}, nil
			default:
				return nil, fmt.Errorf("coercion: cannot coerce %T to DateTimeOffset", raw)
			}
		},
	})
}

func asTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02 15:04:05", v)
	default:
		return time.Time{}, fmt.Errorf("coercion: cannot coerce %T to time.Time", value)
	}
}
