package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("MORA_DIAS_SUSPENSION", "45")
	t.Setenv("SYNC_ON_STATEMENT", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "secreto", cfg.JWTSecret)
	assert.Equal(t, 45, cfg.MoraDiasSuspension)
	assert.False(t, cfg.SyncOnStatement)

	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.LedgerMaxRetries)
	assert.Equal(t, 24, cfg.MoraIntervaloHoras)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "*", cfg.CORSOrigins)
}
