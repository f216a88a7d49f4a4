// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Inference providers.
const (
	ProviderNone   = "none"
	ProviderGRPC   = "grpc"
	ProviderGemini = "gemini"
)

const (
	minCallTimeout = 5 * time.Second
	maxCallTimeout = 30 * time.Second
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	DBPath         string
	SessionTTL     time.Duration
	LexiconPath    string
	PortalURL      string
	AllowedOrigins []string

	ToolBackendURL string
	ToolTimeout    time.Duration

	Inference InferenceConfig
	RateLimit RateLimitConfig

	TranscriptEnabled bool
}

// InferenceConfig selects and configures the natural-language classifier.
type InferenceConfig struct {
	Provider     string
	Addr         string
	Timeout      time.Duration
	GeminiAPIKey string
	GeminiModel  string
}

// RateLimitConfig bounds chat requests per client.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/assistant.db"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 60*time.Minute),
		LexiconPath:    getEnv("LEXICON_PATH", ""),
		PortalURL:      getEnv("PORTAL_URL", "http://localhost:5000/portal"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		ToolBackendURL: getEnv("TOOL_BACKEND_URL", "http://localhost:8000"),
		ToolTimeout:    getEnvDuration("TOOL_TIMEOUT", 15*time.Second),
		Inference: InferenceConfig{
			Provider:     strings.ToLower(getEnv("INFERENCE_PROVIDER", ProviderNone)),
			Addr:         getEnv("INFERENCE_ADDR", "localhost:50051"),
			Timeout:      getEnvDuration("INFERENCE_TIMEOUT", 20*time.Second),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 10),
		},
		TranscriptEnabled: getEnvBool("TRANSCRIPT_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.ToolBackendURL == "" {
		return fmt.Errorf("TOOL_BACKEND_URL cannot be empty")
	}
	if err := checkCallTimeout("TOOL_TIMEOUT", c.ToolTimeout); err != nil {
		return err
	}
	switch c.Inference.Provider {
	case ProviderNone:
	case ProviderGRPC:
		if c.Inference.Addr == "" {
			return fmt.Errorf("INFERENCE_ADDR cannot be empty when INFERENCE_PROVIDER=grpc")
		}
	case ProviderGemini:
		if c.Inference.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when INFERENCE_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("INFERENCE_PROVIDER must be one of none, grpc, gemini (got %q)", c.Inference.Provider)
	}
	if c.Inference.Provider != ProviderNone {
		if err := checkCallTimeout("INFERENCE_TIMEOUT", c.Inference.Timeout); err != nil {
			return err
		}
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0")
	}
	return nil
}

func checkCallTimeout(name string, d time.Duration) error {
	if d < minCallTimeout || d > maxCallTimeout {
		return fmt.Errorf("%s must be between %s and %s (got %s)", name, minCallTimeout, maxCallTimeout, d)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
