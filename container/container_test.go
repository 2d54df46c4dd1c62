package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dberr"
	"github.com/syssam/dbcore/dialect"
)

// stubProvider is a minimal ConnectionProvider for unit tests that never
// reach a real connection; AddParameter/SetParameterValue/ReplaceNeutralTokens
// don't need one.
type stubProvider struct{}

func (stubProvider) Acquire(ctx context.Context, channel connstrategy.Channel) (*connstrategy.TrackedConnection, error) {
	return nil, nil
}
func (stubProvider) Release(tc *connstrategy.TrackedConnection) error { return nil }

func TestAppendIsNoOpOnEmpty(t *testing.T) {
	c := New(dialect.New(dialect.Postgres), stubProvider{}, connstrategy.Write)
	c.Append("SELECT 1").Append("")
	assert.Equal(t, "SELECT 1", c.SQL())
}

func TestAddParameterGeneratesNameAndEnforcesLimit(t *testing.T) {
	d := dialect.New(dialect.Postgres)
	d.MaxParameterLimit = 2
	c := New(d, stubProvider{}, connstrategy.Write)

	ref1, err := c.AddParameter("", dialect.DBTypeInt, 1)
	require.NoError(t, err)
	assert.Equal(t, "$1", ref1)

	_, err = c.AddParameter("", dialect.DBTypeInt, 2)
	require.NoError(t, err)

	_, err = c.AddParameter("", dialect.DBTypeInt, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, dberr.ErrTooManyParameters)
}

func TestAddParameterAnonymousPositionalMarkerHasNoOrdinalSuffix(t *testing.T) {
	c := New(dialect.New(dialect.MySQL), stubProvider{}, connstrategy.Write)

	ref1, err := c.AddParameter("", dialect.DBTypeInt, 1)
	require.NoError(t, err)
	assert.Equal(t, "?", ref1)

	ref2, err := c.AddParameter("", dialect.DBTypeInt, 2)
	require.NoError(t, err)
	assert.Equal(t, "?", ref2)
}

func TestSetParameterValueNotFound(t *testing.T) {
	c := New(dialect.New(dialect.Postgres), stubProvider{}, connstrategy.Write)
	err := c.SetParameterValue("missing", 1)
	assert.ErrorIs(t, err, dberr.ErrParameterNotFound)
}

func TestSetParameterValueRetypesArrayToObject(t *testing.T) {
	d := dialect.New(dialect.Postgres)
	c := New(d, stubProvider{}, connstrategy.Write)
	_, err := c.AddParameter("tags", dialect.DBTypeString, "x")
	require.NoError(t, err)

	require.NoError(t, c.SetParameterValue("tags", []string{"a", "b"}))

	params := c.Parameters()
	require.Len(t, params, 1)
	assert.Equal(t, dialect.DBTypeObject, params[0].DBType)
}

func TestReplaceNeutralTokens(t *testing.T) {
	d := dialect.New(dialect.SQLServer)
	out, err := ReplaceNeutralTokens(d, "SELECT {Q}Id{q} FROM {Q}Users{q} WHERE {Q}Id{q} = {S}")
	require.NoError(t, err)
	assert.Equal(t, `SELECT [Id] FROM [Users] WHERE [Id] = @`, out)
}

func TestReplaceNeutralTokensNilArgument(t *testing.T) {
	d := dialect.New(dialect.SQLServer)
	_, err := ReplaceNeutralTokens(d, "")
	assert.ErrorIs(t, err, ErrNilArgument)
}

func TestBuildWhereEmptyIsAlwaysFalse(t *testing.T) {
	clause, args := BuildWhere("id", nil, 0)
	assert.Equal(t, "1 = 0", clause)
	assert.Empty(t, args)
}

func TestBuildWhereSingleUsesEquals(t *testing.T) {
	clause, args := BuildWhere("id", []any{1}, 0)
	assert.Equal(t, "id = {S}", clause)
	assert.Equal(t, []any{1}, args)
}

func TestBuildWhereSplitsAcrossParameterLimit(t *testing.T) {
	values := []any{1, 2, 3, 4, 5}
	clause, args := BuildWhere("id", values, 2)
	assert.Equal(t, "(id IN ({S}, {S}) OR id IN ({S}, {S}) OR id IN ({S}))", clause)
	assert.Equal(t, values, args)
}
