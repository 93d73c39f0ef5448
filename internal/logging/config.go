package logging

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/designsprint/internal/config"
	"go.uber.org/zap/zapcore"
)

// Config is the full logger configuration. Users only reach Level, Format
// and the output file, through FromSettings; the rest are fixed defaults
// that tests adjust.
type Config struct {
	Level  zapcore.Level
	Format string // json or console
	Output OutputConfig

	Sampling   SamplingConfig
	Caller     CallerConfig
	Stacktrace StacktraceConfig
	// Fields are added to every entry.
	Fields    map[string]string
	Redaction RedactionConfig
}

// OutputConfig selects the sinks. The TUI owns the terminal, so interactive
// runs write to File rather than Stderr.
type OutputConfig struct {
	Stderr bool
	File   string
	OTEL   bool
}

// SamplingConfig thins out repeated entries per Tick. Levels missing from
// Levels use the Info rate; Error and above are never sampled.
type SamplingConfig struct {
	Enabled bool
	Tick    config.Duration
	Levels  map[zapcore.Level]LevelSamplingConfig
}

// LevelSamplingConfig keeps the first Initial entries with the same message
// in a tick, then every Thereafter-th one (0 drops the rest).
type LevelSamplingConfig struct {
	Initial    int
	Thereafter int
}

// CallerConfig adds the file:line of the call site. Skip counts wrapper
// frames above Logger's own methods.
type CallerConfig struct {
	Enabled bool
	Skip    int
}

// StacktraceConfig attaches stacks to entries at Level and above.
type StacktraceConfig struct {
	Level zapcore.Level
}

// RedactionConfig lists field names (case-insensitive) and value patterns
// that are masked in file and stderr output.
type RedactionConfig struct {
	Enabled  bool
	Fields   []string
	Patterns []string
}

// NewDefaultConfig logs JSON at Info to stderr with sampling and credential
// redaction on.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Output: OutputConfig{Stderr: true},
		Sampling: SamplingConfig{
			Enabled: true,
			Tick:    config.Duration(time.Second),
			Levels:  DefaultLevelSamplingConfig(),
		},
		Caller:     CallerConfig{Enabled: true, Skip: 1},
		Stacktrace: StacktraceConfig{Level: zapcore.ErrorLevel},
		Fields:     map[string]string{"service": "designsprint"},
		Redaction: RedactionConfig{
			Enabled: true,
			Fields: []string{
				"api_key", "authorization", "bearer", "credential",
				"password", "private_key", "secret", "token",
			},
			Patterns: []string{
				`(?i)bearer\s+\S+`,
				`(?i)api[_-]?key[=:]\s*\S+`,
				`AIza[0-9A-Za-z_\-]{35}`,
				`sk-[A-Za-z0-9_\-]{20,}`,
			},
		},
	}
}

// DefaultLevelSamplingConfig keeps every distinct Trace message once per
// tick, ten Debug, and thins Info and Warn after a hundred.
func DefaultLevelSamplingConfig() map[zapcore.Level]LevelSamplingConfig {
	return map[zapcore.Level]LevelSamplingConfig{
		TraceLevel:         {Initial: 1},
		zapcore.DebugLevel: {Initial: 10},
		zapcore.InfoLevel:  {Initial: 100, Thereafter: 10},
		zapcore.WarnLevel:  {Initial: 100, Thereafter: 100},
	}
}

// FromSettings applies the logging section of the user config to the
// defaults. Setting a file turns stderr output off.
func FromSettings(s config.LoggingConfig) (*Config, error) {
	cfg := NewDefaultConfig()
	if s.Level != "" {
		level, err := parseLevel(s.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
		}
		cfg.Level = level
	}
	if s.Format != "" {
		cfg.Format = s.Format
	}
	if s.File != "" {
		cfg.Output.Stderr = false
		cfg.Output.File = s.File
	}
	return cfg, nil
}

// parseLevel accepts zap's level names plus "trace".
func parseLevel(name string) (zapcore.Level, error) {
	if strings.EqualFold(name, "trace") {
		return TraceLevel, nil
	}
	return zapcore.ParseLevel(name)
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Format != "json" && c.Format != "console" {
		errs = append(errs, fmt.Errorf("format must be json or console, got %q", c.Format))
	}
	if !c.Output.Stderr && c.Output.File == "" && !c.Output.OTEL {
		errs = append(errs, errors.New("no output enabled (stderr, file or otel)"))
	}
	if c.Sampling.Enabled && c.Sampling.Tick.Duration() <= 0 {
		errs = append(errs, errors.New("sampling tick must be positive"))
	}
	if c.Caller.Enabled && c.Caller.Skip < 0 {
		errs = append(errs, fmt.Errorf("caller skip must not be negative, got %d", c.Caller.Skip))
	}
	if c.Redaction.Enabled {
		if _, err := newRedactor(c.Redaction); err != nil {
			errs = append(errs, err)
		}
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			errs = append(errs, fmt.Errorf("constant field %q=%q needs a key and a value", k, v))
		}
	}
	return errors.Join(errs...)
}
