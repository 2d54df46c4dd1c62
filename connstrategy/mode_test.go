package connstrategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceModeInMemoryForcesSingleConnection(t *testing.T) {
	assert.Equal(t, SingleConnection, CoerceMode(Standard, "file::memory:?cache=shared", false, true))
	assert.Equal(t, SingleConnection, CoerceMode(KeepAlive, ":memory:", false, true))
}

func TestCoerceModeServerProductKeepsKeepAlive(t *testing.T) {
	assert.Equal(t, KeepAlive, CoerceMode(KeepAlive, "postgres://localhost/db", true, false))
}

func TestCoerceModeBestResolution(t *testing.T) {
	assert.Equal(t, SingleConnection, CoerceMode(Best, ":memory:", false, true))
	assert.Equal(t, SingleWriter, CoerceMode(Best, "file:test.db", false, true))
	assert.Equal(t, Standard, CoerceMode(Best, "postgres://localhost/db", true, false))
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "read", Read.String())
	assert.Equal(t, "write", Write.String())
}
