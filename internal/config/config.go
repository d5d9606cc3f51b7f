// Package config provides configuration loading for regaudit.
//
// Configuration is layered: hardcoded defaults, then an optional YAML or TOML
// file, then environment variables. See LoadWithFile for details.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMissingCredential indicates no API key was configured for the completion service.
	ErrMissingCredential = errors.New("missing completion service credential: set OPENAI_API_KEY")

	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the complete regaudit configuration.
//
// Logging and telemetry sections are decoded separately by their own packages
// through Source.Unmarshal to keep those packages free of an import cycle.
type Config struct {
	LLM       LLMConfig       `koanf:"llm"`
	Documents DocumentsConfig `koanf:"documents"`
	Audit     AuditConfig     `koanf:"audit"`
	Server    ServerConfig    `koanf:"server"`
	Events    EventsConfig    `koanf:"events"`
}

// LLMConfig configures the completion service client.
type LLMConfig struct {
	Provider         string   `koanf:"provider"`
	Model            string   `koanf:"model"`
	AuditorModel     string   `koanf:"auditor_model"`
	BaseURL          string   `koanf:"base_url"`
	APIKey           Secret   `koanf:"api_key"`
	MaxTokens        int      `koanf:"max_tokens"`
	AuditorMaxTokens int      `koanf:"auditor_max_tokens"`
	Timeout          Duration `koanf:"timeout"` // 0 disables the client timeout
	RateLimit        float64  `koanf:"rate_limit"`
	Burst            int      `koanf:"burst"`
}

// DocumentsConfig configures the document loader stage.
type DocumentsConfig struct {
	SpecPath      string `koanf:"spec_path"`
	RedactSecrets bool   `koanf:"redact_secrets"`
	AllowlistDir  string `koanf:"allowlist_dir"`
}

// AuditConfig configures the audit conversation.
type AuditConfig struct {
	MaxRounds int `koanf:"max_rounds"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// EventsConfig configures pipeline event publishing.
// An empty NATSURL disables publishing.
type EventsConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// Default model identifiers.
const (
	DefaultModel        = "gpt-5-nano-2025-08-07"
	DefaultAuditorModel = "gpt-5-mini-2025-08-07"
)

// NewDefaultConfig returns the configuration used when nothing is overridden.
func NewDefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:         "openai",
			Model:            DefaultModel,
			AuditorModel:     DefaultAuditorModel,
			AuditorMaxTokens: 2500,
			RateLimit:        50.0 / 60.0,
			Burst:            5,
		},
		Documents: DocumentsConfig{
			SpecPath:      "test_medical_spec.md",
			RedactSecrets: true,
		},
		Audit: AuditConfig{
			MaxRounds: 4,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9090,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Events: EventsConfig{
			SubjectPrefix: "regaudit",
		},
	}
}

// Validate checks the configuration for invalid values.
//
// The API key is not checked here; commands that call the completion
// service use RequireCredential.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
	default:
		return fmt.Errorf("%w: unsupported llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm.model is required", ErrInvalidConfig)
	}
	if c.LLM.MaxTokens < 0 || c.LLM.AuditorMaxTokens < 0 {
		return fmt.Errorf("%w: max tokens must be >= 0", ErrInvalidConfig)
	}
	if c.LLM.RateLimit < 0 {
		return fmt.Errorf("%w: llm.rate_limit must be >= 0, got %f", ErrInvalidConfig, c.LLM.RateLimit)
	}
	if c.LLM.RateLimit > 0 && c.LLM.Burst < 1 {
		return fmt.Errorf("%w: llm.burst must be >= 1 when rate limiting is enabled", ErrInvalidConfig)
	}
	if c.Audit.MaxRounds < 1 {
		return fmt.Errorf("%w: audit.max_rounds must be >= 1, got %d", ErrInvalidConfig, c.Audit.MaxRounds)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port: %d (must be 1-65535)", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("%w: server.shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if c.Events.NATSURL != "" && c.Events.SubjectPrefix == "" {
		return fmt.Errorf("%w: events.subject_prefix is required when events.nats_url is set", ErrInvalidConfig)
	}
	return nil
}

// RequireCredential returns ErrMissingCredential if no API key is configured.
func (c *Config) RequireCredential() error {
	if !c.LLM.APIKey.IsSet() {
		return ErrMissingCredential
	}
	return nil
}
