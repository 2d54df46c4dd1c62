package coercion

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcore/dialect"
)

type widget struct {
	ID     int64
	Name   string
	Active bool
}

func openMockRows(t *testing.T, dsn string, rowsPerQuery int) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	_ = dsn
	require.NoError(t, err)
	rows := sqlmock.NewRows([]string{"id", "name", "active"})
	for i := 0; i < rowsPerQuery; i++ {
		rows.AddRow(int64(i+1), "widget", true)
	}
	mock.ExpectQuery("select").WillReturnRows(rows)
	return db, mock
}

func TestBuildPlanMaterializesHundredRowsWithOneColumnTypesCall(t *testing.T) {
	db, _ := openMockRows(t, "materialize-hundred-rows", 100)
	defer db.Close()

	rows, err := db.Query("select id, name, active from widgets")
	require.NoError(t, err)
	defer rows.Close()

	registry := NewRegistry()
	d := dialect.New(dialect.Postgres)
	m := NewMaterializer(8)

	plan, err := m.BuildPlan(rows, reflect.TypeOf(widget{}), MaterializeOptions{})
	require.NoError(t, err)

	count := 0
	for rows.Next() {
		v, err := plan.ScanInto(rows, reflect.TypeOf(widget{}), registry, d)
		require.NoError(t, err)
		w := v.Interface().(widget)
		assert.Equal(t, int64(count+1), w.ID)
		assert.Equal(t, "widget", w.Name)
		assert.True(t, w.Active)
		count++
	}
	assert.Equal(t, 100, count)
	assert.Equal(t, 1, m.Len())
}

func TestBuildPlanReusesCachedPlanForIdenticalSchema(t *testing.T) {
	db, _ := openMockRows(t, "materialize-cache-reuse-1", 1)
	defer db.Close()
	rows, err := db.Query("select id, name, active from widgets")
	require.NoError(t, err)
	defer rows.Close()

	m := NewMaterializer(8)
	plan1, err := m.BuildPlan(rows, reflect.TypeOf(widget{}), MaterializeOptions{})
	require.NoError(t, err)
	rows.Close()

	db2, _ := openMockRows(t, "materialize-cache-reuse-2", 1)
	defer db2.Close()
	rows2, err := db2.Query("select id, name, active from widgets")
	require.NoError(t, err)
	defer rows2.Close()

	plan2, err := m.BuildPlan(rows2, reflect.TypeOf(widget{}), MaterializeOptions{})
	require.NoError(t, err)

	assert.Same(t, plan1, plan2)
	assert.Equal(t, 1, m.Len())
}

func TestPlanCacheNeverExceedsConfiguredCapacity(t *testing.T) {
	m := NewMaterializer(2)

	type a struct{ X int64 }
	type b struct{ Y int64 }
	type c struct{ Z int64 }

	build := func(targetType reflect.Type, col string) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery("select").WillReturnRows(sqlmock.NewRows([]string{col}).AddRow(int64(1)))
		rows, err := db.Query("select x from t")
		require.NoError(t, err)
		defer rows.Close()
		_, err = m.BuildPlan(rows, targetType, MaterializeOptions{})
		require.NoError(t, err)
	}

	build(reflect.TypeOf(a{}), "x")
	build(reflect.TypeOf(b{}), "y")
	build(reflect.TypeOf(c{}), "z")

	assert.LessOrEqual(t, m.Len(), 2)
}

func TestMaterializerClearEmptiesCache(t *testing.T) {
	db, _ := openMockRows(t, "materialize-clear", 1)
	defer db.Close()
	rows, err := db.Query("select id, name, active from widgets")
	require.NoError(t, err)
	defer rows.Close()

	m := NewMaterializer(4)
	_, err = m.BuildPlan(rows, reflect.TypeOf(widget{}), MaterializeOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestBuildPlanColumnsOnlySkipsUnmatchedColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("select").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "extra_unmapped_column"}).AddRow(int64(1), "widget", "ignored"))
	rows, err := db.Query("select id, name, extra_unmapped_column from widgets")
	require.NoError(t, err)
	defer rows.Close()

	m := NewMaterializer(4)
	_, err = m.BuildPlan(rows, reflect.TypeOf(widget{}), MaterializeOptions{ColumnsOnly: true})
	require.NoError(t, err)
}

func TestBuildPlanFailsClosedWhenColumnHasNoMatchingField(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("select").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "extra_unmapped_column"}).AddRow(int64(1), "widget", "ignored"))
	rows, err := db.Query("select id, name, extra_unmapped_column from widgets")
	require.NoError(t, err)
	defer rows.Close()

	m := NewMaterializer(4)
	_, err = m.BuildPlan(rows, reflect.TypeOf(widget{}), MaterializeOptions{})
	assert.Error(t, err)
}
