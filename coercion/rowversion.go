package coercion

import (
	"fmt"
	"reflect"

	"github.com/syssam/dbcore/dialect"
)

// RowVersion is SQL Server's 8-byte auto-incrementing concurrency token
// (ROWVERSION/TIMESTAMP). It is opaque: callers compare it byte-for-byte,
// never parse it, so there is nothing here beyond a distinct type to key
// the registry on. No example repo or ecosystem library models an 8-byte
// opaque token any better than []byte, so this stays on the standard
// library by design.
type RowVersion [8]byte

var typeOfRowVersion = reflect.TypeOf(RowVersion{})

func registerRowVersionCoercion(r *Registry) {
	r.RegisterConverter(typeOfRowVersion, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			rv, ok := value.(RowVersion)
			if !ok {
				return fmt.Errorf("coercion: expected RowVersion, got %T", value)
			}
			spec.DBType = dialect.DBTypeBinary
			spec.Value = rv[:]
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			b, ok := raw.([]byte)
			if !ok {
				return nil, fmt.Errorf("coercion: cannot coerce %T to RowVersion", raw)
			}
			if len(b) != 8 {
				return nil, fmt.Errorf("coercion: RowVersion must be 8 bytes, got %d", len(b))
			}
			var rv RowVersion
			copy(rv[:], b)
			return rv, nil
		},
	})
}
