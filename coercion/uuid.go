package coercion

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/syssam/dbcore/dialect"
)

var typeOfUUID = reflect.TypeOf(uuid.UUID{})

// registerUUIDCoercion binds/reads google/uuid.UUID, the ID type the
// teacher's predicate layer already special-cases (dialect/sql/predicate.go's
// generic UUIDField). SQL Server binds it as DBTypeGuid natively; every
// other engine in the pack has no native GUID parameter type, so it
// round-trips as the canonical 36-character hyphenated string, matching
// how Postgres/MySQL/SQLite schemas conventionally store UUIDs.
func registerUUIDCoercion(r *Registry) {
	general := Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			id, err := asUUID(value)
			if err != nil {
				return err
			}
			spec.DBType = dialect.DBTypeString
			spec.Value = id.String()
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			return readUUID(raw)
		},
	}
	r.RegisterConverter(typeOfUUID, general)

	sqlServer := Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			id, err := asUUID(value)
			if err != nil {
				return err
			}
			spec.DBType = dialect.DBTypeGuid
			spec.Value = id
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			return readUUID(raw)
		},
	}
	r.RegisterMapping(typeOfUUID, dialect.SQLServer, sqlServer)
}

func asUUID(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	case []byte:
		return uuid.ParseBytes(v)
	default:
		return uuid.UUID{}, fmt.Errorf("coercion: cannot coerce %T to uuid.UUID", value)
	}
}

func readUUID(raw any) (any, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	default:
		return nil, fmt.Errorf("coercion: cannot read %T as uuid.UUID", raw)
	}
}
