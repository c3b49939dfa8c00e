package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Only the API key has no default.
	t.Setenv("WORDFORGE_LLM_GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.TextModel)
	assert.Equal(t, 4, cfg.Pipeline.WorkerCount)
	assert.Equal(t, 100, cfg.Pipeline.MaxBatchSize)
	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.CallTimeout)
	assert.Equal(t, 50, cfg.Quota.FreeItemsPerPeriod)
	assert.Equal(t, 24*time.Hour, cfg.Quota.Period)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WORDFORGE_LLM_GEMINI_API_KEY", "test-key")
	t.Setenv("WORDFORGE_SERVER_PORT", "9090")
	t.Setenv("WORDFORGE_SERVER_LOG_LEVEL", "debug")
	t.Setenv("WORDFORGE_PIPELINE_WORKER_COUNT", "8")
	t.Setenv("WORDFORGE_QUOTA_PERIOD", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 8, cfg.Pipeline.WorkerCount)
	assert.Equal(t, time.Hour, cfg.Quota.Period)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing API key",
			env:  map[string]string{},
		},
		{
			name: "invalid port",
			env: map[string]string{
				"WORDFORGE_LLM_GEMINI_API_KEY": "test-key",
				"WORDFORGE_SERVER_PORT":        "70000",
			},
		},
		{
			name: "invalid log level",
			env: map[string]string{
				"WORDFORGE_LLM_GEMINI_API_KEY": "test-key",
				"WORDFORGE_SERVER_LOG_LEVEL":   "verbose",
			},
		},
		{
			name: "zero workers",
			env: map[string]string{
				"WORDFORGE_LLM_GEMINI_API_KEY":    "test-key",
				"WORDFORGE_PIPELINE_WORKER_COUNT": "0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, val := range tt.env {
				t.Setenv(k, val)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
