package dbcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dialect"
)

func TestPostProcessInjectsMinPoolSizeOnlyInStandardMode(t *testing.T) {
	d := dialect.New(dialect.SQLServer)

	standard := postProcessConnectionString("Server=.;Database=x", d, connstrategy.Standard, false, "")
	assert.Contains(t, standard, "Min Pool Size=1")

	keepAlive := postProcessConnectionString("Server=.;Database=x", d, connstrategy.KeepAlive, false, "")
	assert.NotContains(t, keepAlive, "Min Pool Size")
}

func TestPostProcessDoesNotOverrideExplicitMinPoolSize(t *testing.T) {
	d := dialect.New(dialect.SQLServer)
	out := postProcessConnectionString("Server=.;Min Pool Size=5", d, connstrategy.Standard, false, "")
	assert.Equal(t, 1, countOccurrences(out, "Min Pool Size"))
	assert.Contains(t, out, "Min Pool Size=5")
}

func TestPostProcessAppendsPostgresReadOnlyOptions(t *testing.T) {
	d := dialect.New(dialect.Postgres)
	out := postProcessConnectionString("host=localhost dbname=x", d, connstrategy.Standard, true, "")
	assert.Contains(t, out, "Options='-c default_transaction_read_only=on'")

	write := postProcessConnectionString("host=localhost dbname=x", d, connstrategy.Standard, false, "")
	assert.NotContains(t, write, "default_transaction_read_only")
}

func TestPostProcessStampsApplicationName(t *testing.T) {
	d := dialect.New(dialect.Postgres)
	out := postProcessConnectionString("host=localhost", d, connstrategy.Standard, false, "my-service")
	assert.Contains(t, out, "application_name=my-service")
}

func countOccurrences(s, substr string) int {
	n := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			n++
			i += len(substr) - 1
		}
	}
	return n
}
