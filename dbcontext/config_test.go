package dbcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbcore/connstrategy"
)

func TestNewConfigAppliesDefaults(t *testing.T) {
	cfg, err := NewConfig("dsn", "postgres")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PoolAcquireTimeout)
	assert.Equal(t, 30*time.Second, cfg.ModeLockTimeout)
	assert.Equal(t, connstrategy.Best, cfg.DbMode)
	assert.NotNil(t, cfg.Logger)
}

func TestNewConfigOptionErrorAbortsConstruction(t *testing.T) {
	_, err := NewConfig("dsn", "postgres", WithPoolAcquireTimeout(-1))
	assert.Error(t, err)
}

func TestPoolGovernorEnabledForcedTrueInStandardMode(t *testing.T) {
	disabled := false
	cfg, err := NewConfig("dsn", "postgres", WithPoolGovernor(disabled))
	require.NoError(t, err)

	assert.True(t, cfg.poolGovernorEnabled(connstrategy.Standard))
	assert.False(t, cfg.poolGovernorEnabled(connstrategy.KeepAlive))
}

func TestPoolGovernorDefaultsToEnabled(t *testing.T) {
	cfg, err := NewConfig("dsn", "postgres")
	require.NoError(t, err)
	assert.True(t, cfg.poolGovernorEnabled(connstrategy.KeepAlive))
}

func TestResolveKindFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, "unknown", string(resolveKind("some-custom-driver")))
}

func TestResolveDriverNameUsesCallerDriverWhenUnmapped(t *testing.T) {
	kind := resolveKind("some-custom-driver")
	assert.Equal(t, "some-custom-driver", resolveDriverName(kind, "some-custom-driver"))
}
