package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(kv map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := kv[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "", cfg.Database.DSN)
	assert.False(t, cfg.UsesPostgres())
	assert.Equal(t, "./migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "@every 1m", cfg.Sweep.Schedule)
	assert.Equal(t, 200, cfg.Sweep.BatchSize)
	assert.Equal(t, 8, cfg.Sweep.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Sweep.Timeout)
	assert.Equal(t, 0, cfg.Game.MaxCatchUp)
	assert.Equal(t, uint64(0), cfg.Game.RNGSeed)
	assert.Equal(t, "demo-player", cfg.Game.SeedPlayer)
	assert.Equal(t, "", cfg.Game.CatalogPath)
	assert.Equal(t, 20, cfg.Game.FinishedLimit)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	cfg, err := Load(nil, envOf(map[string]string{
		"FIEFDOM_HTTP_ADDR":         ":9090",
		"FIEFDOM_DB_DSN":            "postgres://localhost/fiefdom",
		"FIEFDOM_LOG_LEVEL":         "debug",
		"FIEFDOM_SWEEP_SCHEDULE":    "",
		"FIEFDOM_SWEEP_CONCURRENCY": "3",
		"FIEFDOM_MAX_CATCHUP":       "50",
		"FIEFDOM_RNG_SEED":          "42",
		"FIEFDOM_SWEEP_BATCH":       "not-a-number",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "", cfg.Sweep.Schedule, "an explicitly empty schedule disables the sweep")
	assert.Equal(t, 3, cfg.Sweep.Concurrency)
	assert.Equal(t, 200, cfg.Sweep.BatchSize, "unparsable values fall back to the default")
	assert.Equal(t, 50, cfg.Game.MaxCatchUp)
	assert.Equal(t, uint64(42), cfg.Game.RNGSeed)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	cfg, err := Load(
		[]string{"-addr", ":7000", "-max-catchup", "0", "-sweep-schedule", "*/5 * * * *", "-seed-player", "alice"},
		envOf(map[string]string{"FIEFDOM_HTTP_ADDR": ":9090", "FIEFDOM_MAX_CATCHUP": "10"}),
	)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 0, cfg.Game.MaxCatchUp)
	assert.Equal(t, "*/5 * * * *", cfg.Sweep.Schedule)
	assert.Equal(t, "alice", cfg.Game.SeedPlayer)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	_, err := Load(nil, envOf(map[string]string{"FIEFDOM_MAX_CATCHUP": "-1"}))
	require.Error(t, err)

	_, err = Load([]string{"-unknown"}, envOf(nil))
	require.Error(t, err)
}
