package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/genjobs/config"
)

func TestValidateServiceConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AppConfig
		wantErr string
	}{
		{
			name: "http without redis",
			cfg:  config.AppConfig{Services: "http"},
		},
		{
			name: "worker with redis",
			cfg: config.AppConfig{
				Services: "http,job-events,job-worker",
				Redis:    config.RedisConfig{URI: "localhost:6379"},
			},
		},
		{
			name:    "worker without redis",
			cfg:     config.AppConfig{Services: "job-worker"},
			wantErr: "job-worker requires",
		},
		{
			name:    "events without redis",
			cfg:     config.AppConfig{Services: "http,job-events"},
			wantErr: "job-events requires",
		},
		{
			name:    "unknown service",
			cfg:     config.AppConfig{Services: "scheduler"},
			wantErr: "invalid service configuration",
		},
		{
			name: "redis auth without redis",
			cfg: config.AppConfig{
				Services: "http",
				Auth:     config.AuthConfig{Mode: config.AuthModeRedis},
			},
			wantErr: "AUTH_MODE=redis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceConfig(&tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.Error(t, ValidateServiceConfig(nil))
}

func TestGetEnabledServices(t *testing.T) {
	cfg := &config.AppConfig{Services: "job-worker, http"}
	assert.Equal(t, []string{"http", "job-worker"}, GetEnabledServices(cfg))

	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Empty(t, GetEnabledServices(nil))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVICES", "http")
	t.Setenv("REDIS_URI", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.HTTP.Addr)
	assert.Equal(t, config.AuthModeScaffold, cfg.Auth.Mode)
	assert.Equal(t, "ai_jobs", cfg.Jobs.QueueKey)
	assert.False(t, cfg.Redis.Configured())
}

func TestLoadConfig_InvalidAuthMode(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUTH_MODE", "oauth")

	_, err := LoadConfig()
	require.Error(t, err)
}
