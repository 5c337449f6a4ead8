package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service. All values are
// environment-derived; a .env file is honored when present.
type Config struct {
	ServerAddress string
	Inference     InferenceConfig
	Files         FileConfig
	Poll          PollConfig
	Timeout       time.Duration
	LogLevel      string
	LogFormat     string
}

type InferenceConfig struct {
	Provider            string
	APIKey              string
	BaseURL             string
	Model               string
	MaxTokens           int
	TemperatureFast     float32
	TemperatureAccurate float32
}

type FileConfig struct {
	MaxUploadBytes int64
	UploadsDir     string
	OutputDir      string
}

type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

var apiKeyEnvByProvider = map[string]string{
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// Load assembles configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	provider := envString("DOCSTRUCT_PROVIDER", "openai")
	keyEnv, ok := apiKeyEnvByProvider[provider]
	if !ok {
		return nil, fmt.Errorf("unknown inference provider: %s", provider)
	}
	apiKey := os.Getenv("DOCSTRUCT_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv(keyEnv)
	}

	cfg := &Config{
		ServerAddress: envString("DOCSTRUCT_ADDR", ":5000"),
		Inference: InferenceConfig{
			Provider:            provider,
			APIKey:              apiKey,
			BaseURL:             os.Getenv("DOCSTRUCT_BASE_URL"),
			Model:               envString("DOCSTRUCT_MODEL", "gpt-4o"),
			MaxTokens:           envInt("DOCSTRUCT_MAX_TOKENS", 4000),
			TemperatureFast:     0.3,
			TemperatureAccurate: 0.1,
		},
		Files: FileConfig{
			MaxUploadBytes: envInt64("DOCSTRUCT_MAX_UPLOAD_BYTES", 10<<20),
			UploadsDir:     envString("DOCSTRUCT_UPLOADS_DIR", "uploads"),
			OutputDir:      envString("DOCSTRUCT_OUTPUT_DIR", "outputs"),
		},
		Poll: PollConfig{
			Interval:    envDuration("DOCSTRUCT_POLL_INTERVAL", 2*time.Second),
			MaxAttempts: envInt("DOCSTRUCT_POLL_MAX_ATTEMPTS", 90),
		},
		Timeout:   envDuration("DOCSTRUCT_TIMEOUT", 2*time.Minute),
		LogLevel:  envString("DOCSTRUCT_LOG_LEVEL", "info"),
		LogFormat: envString("DOCSTRUCT_LOG_FORMAT", "console"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Inference.APIKey == "" {
		keyEnv := apiKeyEnvByProvider[c.Inference.Provider]
		return fmt.Errorf("inference API key is required: set %s", keyEnv)
	}
	if c.Files.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("processing timeout must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
