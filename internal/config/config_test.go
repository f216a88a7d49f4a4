package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data/assistant.db", cfg.DBPath)
	assert.Equal(t, 60*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 15*time.Second, cfg.ToolTimeout)
	assert.Equal(t, ProviderNone, cfg.Inference.Provider)
	assert.Equal(t, 20*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.True(t, cfg.TranscriptEnabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TOOL_TIMEOUT", "8")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("INFERENCE_PROVIDER", "GRPC")
	t.Setenv("INFERENCE_TIMEOUT", "10s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TRANSCRIPT_ENABLED", "off")
	t.Setenv("FRONTEND_URL", "https://campus.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.ToolTimeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, ProviderGRPC, cfg.Inference.Provider)
	assert.Equal(t, 10*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.TranscriptEnabled)
	assert.False(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"tool timeout too short", map[string]string{"TOOL_TIMEOUT": "2s"}, "TOOL_TIMEOUT must be between"},
		{"tool timeout too long", map[string]string{"TOOL_TIMEOUT": "45s"}, "TOOL_TIMEOUT must be between"},
		{"inference timeout checked when enabled", map[string]string{"INFERENCE_PROVIDER": "grpc", "INFERENCE_TIMEOUT": "1m"}, "INFERENCE_TIMEOUT"},
		{"gemini needs a key", map[string]string{"INFERENCE_PROVIDER": "gemini"}, "GEMINI_API_KEY"},
		{"unknown provider", map[string]string{"INFERENCE_PROVIDER": "openai"}, "INFERENCE_PROVIDER"},
		{"empty db path", map[string]string{"DB_PATH": ""}, "DB_PATH"},
		{"rate limit", map[string]string{"RATE_LIMIT_PER_MINUTE": "0"}, "RATE_LIMIT_PER_MINUTE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInferenceTimeoutIgnoredWhenDisabled(t *testing.T) {
	t.Setenv("INFERENCE_TIMEOUT", "2m")
	_, err := Load()
	assert.NoError(t, err)
}
