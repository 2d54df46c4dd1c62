package coercion

import (
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/syssam/dbcore/dialect"
)

func newTestRegistryAndDescriptor() (*Registry, *dialect.Descriptor) {
	return NewRegistry(), dialect.New(dialect.Postgres)
}

func TestBoolCoercionConfigureAndRead(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	var spec dialect.ParamSpec

	ok := r.TryConfigureParameter(&spec, typeOfBool, "YES", d)
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeBool, spec.DBType)
	assert.Equal(t, true, spec.Value)

	v, err := r.ReadValue("off", typeOfBool, d)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestBoolCoercionRejectsUnrecognizedToken(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	var spec dialect.ParamSpec

	ok := r.TryConfigureParameter(&spec, typeOfBool, "maybe", d)
	assert.False(t, ok)
}

func TestDecimalCoercionRecoversPrecisionAndScale(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	var spec dialect.ParamSpec

	val := decimal.RequireFromString("123.4500")
	ok := r.TryConfigureParameter(&spec, typeOfDecimal, val, d)
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeDecimal, spec.DBType)
	assert.Equal(t, 4, spec.Scale)

	v, err := r.ReadValue("99.50", typeOfDecimal, d)
	require.NoError(t, err)
	got, ok := v.(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("99.50")))
}

func TestDateTimeCoercionNormalizesToUTC(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	loc := time.FixedZone("UTC+9", 9*60*60)
	local := time.Date(2026, 7, 30, 12, 0, 0, 0, loc)

	var spec dialect.ParamSpec
	ok := r.TryConfigureParameter(&spec, typeOfTime, local, d)
	require.True(t, ok)
	got, ok := spec.Value.(time.Time)
	require.True(t, ok)
	assert.Equal(t, local.UTC(), got)
}

func TestDateTimeOffsetCoercionPreservesOffset(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	loc := time.FixedZone("UTC+9", 9*60*60)
	local := time.Date(2026, 7, 30, 12, 0, 0, 0, loc)

	var spec dialect.ParamSpec
	ok := r.TryConfigureParameter(&spec, typeOfDateTimeOffset, DateTimeOffset{local}, d)
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeDateTimeOffset, spec.DBType)

	v, err := r.ReadValue(local.Format(time.RFC3339Nano), typeOfDateTimeOffset, d)
	require.NoError(t, err)
	dto, ok := v.(DateTimeOffset)
	require.True(t, ok)
	assert.True(t, dto.Equal(local))
	_, offset := dto.Zone()
	assert.Equal(t, 9*60*60, offset)
}

func TestJSONCoercionRoundTrips(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	jv, err := MarshalJSONValue(map[string]int{"a": 1})
	require.NoError(t, err)

	var spec dialect.ParamSpec
	ok := r.TryConfigureParameter(&spec, typeOfJSONValue, jv, d)
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeJSON, spec.DBType)

	v, err := r.ReadValue(`{"a":1}`, typeOfJSONValue, d)
	require.NoError(t, err)
	assert.Equal(t, JSONValue{Raw: []byte(`{"a":1}`)}, v)
}

func TestSpatialCoercionRoundTripsSRIDAndRejectsFlippedByteOrder(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	pt := geom.NewPointFlat(geom.XY, []float64{1, 2}).SetSRID(4326)

	var spec dialect.ParamSpec
	ok := r.TryConfigureParameter(&spec, typeOfSpatialValue, SpatialValue{Geom: pt, SRID: 4326}, d)
	require.True(t, ok)
	raw, ok := spec.Value.([]byte)
	require.True(t, ok)

	v, err := r.ReadValue(raw, typeOfSpatialValue, d)
	require.NoError(t, err)
	sv, ok := v.(SpatialValue)
	require.True(t, ok)
	assert.Equal(t, 4326, sv.SRID)

	beRaw := make([]byte, len(raw))
	copy(beRaw, raw)
	beRaw[0] = 0
	_, err = decodeEWKB(beRaw)
	assert.Error(t, err, "flipping the byte-order flag without re-encoding the body should fail, not panic")
}

func TestIntervalCoercionParsesISO8601(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()

	v, err := r.ReadValue("P1Y2M3DT4H5M6S", typeOfInterval, d)
	require.NoError(t, err)
	iv, ok := v.(Interval)
	require.True(t, ok)
	assert.Equal(t, float64(1), iv.Years)
	assert.Equal(t, float64(2), iv.Months)

	var spec dialect.ParamSpec
	ok2 := r.TryConfigureParameter(&spec, typeOfInterval, iv, d)
	require.True(t, ok2)
	assert.Equal(t, dialect.DBTypeString, spec.DBType)
}

func TestRangeCoercionRoundTripsInclusiveExclusiveBounds(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()

	v, err := r.ReadValue("[1,10)", typeOfRange, d)
	require.NoError(t, err)
	rg, ok := v.(Range)
	require.True(t, ok)
	assert.True(t, rg.LowerInclusive)
	assert.False(t, rg.UpperInclusive)
	assert.Equal(t, "1", rg.Lower)
	assert.Equal(t, "10", rg.Upper)
	assert.Equal(t, "[1,10)", rg.String())

	unbounded, err := r.ReadValue("(,5]", typeOfRange, d)
	require.NoError(t, err)
	ub, ok := unbounded.(Range)
	require.True(t, ok)
	assert.True(t, ub.LowerUnbounded)
}

func TestRowVersionCoercionRejectsWrongLength(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()

	_, err := r.ReadValue([]byte{1, 2, 3}, typeOfRowVersion, d)
	assert.Error(t, err)

	v, err := r.ReadValue([]byte{0, 0, 0, 0, 0, 0, 0, 1}, typeOfRowVersion, d)
	require.NoError(t, err)
	rv, ok := v.(RowVersion)
	require.True(t, ok)
	assert.Equal(t, byte(1), rv[7])
}

func TestMsgpackFallbackRoundTrips(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	var spec dialect.ParamSpec

	ok := r.TryConfigureParameter(&spec, typeOfMsgpackValue, MsgpackValue{Raw: []byte{1, 2, 3}}, d)
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeBinary, spec.DBType)

	v, err := r.ReadValue([]byte{4, 5, 6}, typeOfMsgpackValue, d)
	require.NoError(t, err)
	assert.Equal(t, MsgpackValue{Raw: []byte{4, 5, 6}}, v)
}

func TestCIDRShimDuckTypesAddressAndNetmask(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	ipNet := net.IPNet{IP: net.ParseIP("192.168.1.0").To4(), Mask: net.CIDRMask(24, 32)}

	var spec dialect.ParamSpec
	ok := r.TryConfigureParameter(&spec, typeOfIPNet, ipNet, d)
	require.True(t, ok)
	raw, ok := spec.Value.([]byte)
	require.True(t, ok)

	v, err := r.ReadValue(raw, typeOfIPNet, d)
	require.NoError(t, err)
	got, ok := v.(net.IPNet)
	require.True(t, ok)
	assert.Equal(t, ipNet.IP.String(), got.IP.String())
	ones, _ := got.Mask.Size()
	assert.Equal(t, 24, ones)
}

func TestUUIDCoercionRoundTripsAsStringOnGenericDialect(t *testing.T) {
	r, d := newTestRegistryAndDescriptor()
	id := uuid.New()

	var spec dialect.ParamSpec
	ok := r.TryConfigureParameter(&spec, typeOfUUID, id, d)
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeString, spec.DBType)
	assert.Equal(t, id.String(), spec.Value)

	v, err := r.ReadValue(id.String(), typeOfUUID, d)
	require.NoError(t, err)
	assert.Equal(t, id, v)
}

func TestUUIDCoercionUsesNativeGuidOnSQLServer(t *testing.T) {
	r := NewRegistry()
	d := dialect.New(dialect.SQLServer)
	id := uuid.New()

	var spec dialect.ParamSpec
	ok := r.TryConfigureParameter(&spec, typeOfUUID, id, d)
	require.True(t, ok)
	assert.Equal(t, dialect.DBTypeGuid, spec.DBType)
	assert.Equal(t, id, spec.Value)
}
