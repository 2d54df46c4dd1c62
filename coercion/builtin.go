package coercion

import (
	"reflect"
	"time"
)

// registerBuiltins wires every coercion shipped by default. Each is
// grounded in its own file; this just assembles them into one Registry so
// NewRegistry stays a one-line call site.
func registerBuiltins(r *Registry) {
	registerBoolCoercion(r)
	registerDecimalCoercion(r)
	registerDateTimeCoercion(r)
	registerJSONCoercion(r)
	registerSpatialCoercion(r)
	registerIntervalCoercion(r)
	registerRangeCoercion(r)
	registerRowVersionCoercion(r)
	registerMsgpackFallback(r)
	registerUUIDCoercion(r)
}

var (
	typeOfTime           = reflect.TypeOf(time.Time{})
	typeOfDateTimeOffset = reflect.TypeOf(DateTimeOffset{})
)
