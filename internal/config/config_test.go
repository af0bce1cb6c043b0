package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ParseEnv(cfg))

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Timezone)
	assert.Equal(t, 100, cfg.Rewards.LevelSize)
	assert.Equal(t, 5, cfg.Rewards.ScheduleCompletion)
	assert.Equal(t, 10, cfg.Rewards.MedicineTaken)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.SweepInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/focus")
	t.Setenv("REWARDS_LEVEL_SIZE", "250")
	t.Setenv("SCHEDULER_SWEEP_INTERVAL", "30s")

	cfg := &Config{}
	require.NoError(t, ParseEnv(cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 250, cfg.Rewards.LevelSize)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.SweepInterval)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		require.NoError(t, ParseEnv(cfg))
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseType = "postgres" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseType = "oracle" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "zero level size", mutate: func(c *Config) { c.Rewards.LevelSize = 0 }, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.Scheduler.SweepInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
