package coercion

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcore/dialect"
)

func TestTryConfigureParameterNilValueBindsDBNull(t *testing.T) {
	r := NewRegistry()
	d := dialect.New(dialect.Postgres)
	var spec dialect.ParamSpec

	var nilPtr *int
	ok := r.TryConfigureParameter(&spec, reflect.TypeOf(nilPtr), nilPtr, d)

	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeNull, spec.DBType)
	assert.Nil(t, spec.Value)
}

func TestTryConfigureParameterUnregisteredTypeReturnsFalse(t *testing.T) {
	r := NewRegistry()
	d := dialect.New(dialect.Postgres)
	var spec dialect.ParamSpec

	type unregistered struct{ X int }
	ok := r.TryConfigureParameter(&spec, reflect.TypeOf(unregistered{}), unregistered{X: 1}, d)

	assert.False(t, ok)
}

func TestRegisterMappingOverridesGeneralForThatDialectOnly(t *testing.T) {
	r := NewRegistry()
	boolType := reflect.TypeOf(bool(false))

	r.RegisterMapping(boolType, dialect.SQLServer, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			spec.DBType = dialect.DBTypeInt
			spec.Value = 1
			return nil
		},
	})

	var sqlServerSpec dialect.ParamSpec
	ok := r.TryConfigureParameter(&sqlServerSpec, boolType, true, dialect.New(dialect.SQLServer))
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeInt, sqlServerSpec.DBType)

	var postgresSpec dialect.ParamSpec
	ok = r.TryConfigureParameter(&postgresSpec, boolType, true, dialect.New(dialect.Postgres))
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeBool, postgresSpec.DBType)
}

func TestConcurrentRegistrationAndResolutionNeverPanicsAndConverges(t *testing.T) {
	r := NewRegistry()
	boolType := reflect.TypeOf(bool(false))
	d := dialect.New(dialect.Postgres)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.RegisterConverter(boolType, Coercion{
					ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
						spec.DBType = dialect.DBTypeBool
						spec.Value = value
						return nil
					},
				})
				var spec dialect.ParamSpec
				r.TryConfigureParameter(&spec, boolType, true, d)
			}
		}(i)
	}
	wg.Wait()

	var spec dialect.ParamSpec
	ok := r.TryConfigureParameter(&spec, boolType, true, d)
	assert.True(t, ok)
	assert.Equal(t, dialect.DBTypeBool, spec.DBType)
}

func TestReadValueFallsBackToRawWhenUnregistered(t *testing.T) {
	r := NewRegistry()
	d := dialect.New(dialect.Postgres)

	type unregistered struct{}
	v, err := r.ReadValue("raw-value", reflect.TypeOf(unregistered{}), d)

	require.NoError(t, err)
	assert.Equal(t, "raw-value", v)
}
