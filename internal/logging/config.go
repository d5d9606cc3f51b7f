package logging

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fyrsmithlabs/regaudit/internal/config"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. The audit coordinator logs full prompt and
// reply bodies at this level.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a level name. "trace" is accepted alongside zap's
// own names, case-insensitively.
func LevelFromString(level string) (zapcore.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// Config holds logging configuration. It is decoded from the "logging"
// section of the config source.
type Config struct {
	Level      string            `koanf:"level"`
	Format     string            `koanf:"format"`
	Output     OutputConfig      `koanf:"output"`
	Sampling   SamplingConfig    `koanf:"sampling"`
	Caller     bool              `koanf:"caller"`
	Stacktrace string            `koanf:"stacktrace"`
	Fields     map[string]string `koanf:"fields"`
	Redaction  RedactionConfig   `koanf:"redaction"`
}

// OutputConfig controls where logs are written.
//
// Writer is "stdout", "stderr" or "none". The interactive CLI writes logs
// to stderr so they never interleave with the printed report.
type OutputConfig struct {
	Writer string `koanf:"writer"`
	OTEL   bool   `koanf:"otel"`
}

// SamplingConfig thins entries below warn level.
type SamplingConfig struct {
	Enabled    bool            `koanf:"enabled"`
	Tick       config.Duration `koanf:"tick"`
	Initial    int             `koanf:"initial"`
	Thereafter int             `koanf:"thereafter"`
}

// RedactionConfig controls sensitive data redaction.
type RedactionConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Fields   []string `koanf:"fields"`
	Patterns []string `koanf:"patterns"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: OutputConfig{
			Writer: "stderr",
		},
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       config.Duration(time.Second),
			Initial:    100,
			Thereafter: 10,
		},
		Caller:     true,
		Stacktrace: "error",
		Fields: map[string]string{
			"service": "regaudit",
		},
		Redaction: RedactionConfig{
			Enabled: true,
			Fields: []string{
				"password", "secret", "token", "api_key",
				"authorization", "bearer", "credential", "private_key",
			},
			Patterns: []string{
				`(?i)bearer\s+\S+`,
				`(?i)api[_-]?key[=:]\s*\S+`,
				`sk-[A-Za-z0-9_-]{20,}`,
			},
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if _, err := LevelFromString(c.Level); err != nil {
		return fmt.Errorf("invalid level %q: %w", c.Level, err)
	}
	if c.Stacktrace != "" {
		if _, err := LevelFromString(c.Stacktrace); err != nil {
			return fmt.Errorf("invalid stacktrace level %q: %w", c.Stacktrace, err)
		}
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	switch c.Output.Writer {
	case "stdout", "stderr", "none":
	default:
		return fmt.Errorf("output writer must be 'stdout', 'stderr' or 'none', got %q", c.Output.Writer)
	}
	if c.Output.Writer == "none" && !c.Output.OTEL {
		return fmt.Errorf("at least one output must be enabled (writer or otel)")
	}
	if c.Sampling.Enabled && c.Sampling.Tick.Duration() <= 0 {
		return fmt.Errorf("sampling tick must be > 0 when sampling enabled")
	}

	if c.Redaction.Enabled {
		for _, pattern := range c.Redaction.Patterns {
			if len(pattern) > maxPatternLen {
				return fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, pattern)
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid redaction pattern %q: %w", pattern, err)
			}
		}
	}

	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}

	return nil
}

func (c *Config) level() zapcore.Level {
	l, _ := LevelFromString(c.Level)
	return l
}
