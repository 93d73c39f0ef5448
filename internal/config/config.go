// Package config provides configuration loading for designsprint.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then environment variables. The AI credential is the only required value
// and is checked once at startup (see CredentialStatus).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// PlaceholderAPIKey is the value shipped in sample env files. It is treated
// the same as a missing key.
const PlaceholderAPIKey = "YOUR_API_KEY_HERE"

// Provider names accepted in ai.provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds the complete designsprint configuration.
type Config struct {
	AI        AIConfig        `koanf:"ai"`
	Sprint    SprintConfig    `koanf:"sprint"`
	Images    ImagesConfig    `koanf:"images"`
	Export    ExportConfig    `koanf:"export"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// AIConfig configures the generative AI backend.
type AIConfig struct {
	Provider          string   `koanf:"provider"`
	APIKey            Secret   `koanf:"api_key"`
	Model             string   `koanf:"model"`
	ImageModel        string   `koanf:"image_model"`
	BaseURL           string   `koanf:"base_url"`
	Timeout           Duration `koanf:"timeout"`
	RequestsPerMinute int      `koanf:"requests_per_minute"`
	SearchGrounding   bool     `koanf:"search_grounding"`
}

// SprintConfig holds sprint flow defaults.
type SprintConfig struct {
	DefaultPersona  string `koanf:"default_persona"`
	DecideFramework string `koanf:"decide_framework"`
	InitialPhase    string `koanf:"initial_phase"`
}

// ImagesConfig bounds the images staged for the Test phase.
type ImagesConfig struct {
	MaxFiles int   `koanf:"max_files"`
	MaxBytes int64 `koanf:"max_bytes"`
}

// ExportConfig controls transcript exports. Credentials found in exported
// text are redacted unless KeepSecrets is set.
type ExportConfig struct {
	KeepSecrets bool `koanf:"keep_secrets"`
}

// LoggingConfig is the subset of logging settings exposed to users.
// cmd/sprint maps it onto logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// TelemetryConfig is the subset of telemetry settings exposed to users.
// cmd/sprint maps it onto telemetry.Config.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	Protocol string `koanf:"protocol"`
	Insecure bool   `koanf:"insecure"`
}

// Credential errors. Both mean the AI features are unavailable for the run.
var (
	ErrCredentialMissing     = errors.New("credential missing: API_KEY is not set")
	ErrCredentialPlaceholder = errors.New("credential is the placeholder value")
)

// CredentialStatus reports whether the AI credential is usable.
func (c *AIConfig) CredentialStatus() error {
	key := strings.TrimSpace(c.APIKey.Value())
	switch {
	case key == "":
		return ErrCredentialMissing
	case key == PlaceholderAPIKey:
		return ErrCredentialPlaceholder
	}
	return nil
}

// Validate validates the configuration.
//
// Returns an error if:
//   - ai.provider is not gemini or openai
//   - ai.timeout or ai.requests_per_minute is negative
//   - images.max_files is not positive
//   - logging.format is not json or console
//
// A missing credential is not a validation error: the app still starts and
// reports the backend as unavailable.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid ai.provider %q (must be %s or %s)", c.AI.Provider, ProviderGemini, ProviderOpenAI)
	}
	if c.AI.Timeout.Duration() < 0 {
		return errors.New("ai.timeout must not be negative")
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("invalid ai.requests_per_minute: %d", c.AI.RequestsPerMinute)
	}
	if c.Images.MaxFiles <= 0 {
		return fmt.Errorf("invalid images.max_files: %d (must be positive)", c.Images.MaxFiles)
	}
	if c.Images.MaxBytes <= 0 {
		return fmt.Errorf("invalid images.max_bytes: %d (must be positive)", c.Images.MaxBytes)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http" {
		return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http', got %q", c.Telemetry.Protocol)
	}
	return nil
}

// Default returns a configuration with every default applied and no credential.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// AI defaults
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = ProviderGemini
	}
	if cfg.AI.Model == "" {
		switch cfg.AI.Provider {
		case ProviderOpenAI:
			cfg.AI.Model = "gpt-4o-mini"
		default:
			cfg.AI.Model = "gemini-2.5-flash"
		}
	}
	if cfg.AI.ImageModel == "" {
		cfg.AI.ImageModel = "imagen-3.0-generate-002"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = Duration(2 * time.Minute)
	}
	if cfg.AI.RequestsPerMinute == 0 {
		cfg.AI.RequestsPerMinute = 30
	}

	// Sprint defaults
	if cfg.Sprint.DecideFramework == "" {
		cfg.Sprint.DecideFramework = "Impact vs. Effort"
	}
	if cfg.Sprint.InitialPhase == "" {
		cfg.Sprint.InitialPhase = "understand"
	}

	// Images defaults
	if cfg.Images.MaxFiles == 0 {
		cfg.Images.MaxFiles = 5
	}
	if cfg.Images.MaxBytes == 0 {
		cfg.Images.MaxBytes = 10 * 1024 * 1024
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Telemetry defaults (disabled unless configured)
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}

// applyCredentialFallbacks fills ai.api_key from the conventional variable
// names when AI_API_KEY was not provided.
func applyCredentialFallbacks(cfg *Config) {
	if cfg.AI.APIKey.IsSet() {
		return
	}
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			cfg.AI.APIKey = Secret(v)
			return
		}
	}
}
