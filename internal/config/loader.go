package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// credentialEnv is read directly when llm.api_key is not configured.
	credentialEnv = "OPENAI_API_KEY"
)

// Source is a loaded, layered configuration tree.
//
// Packages that own their configuration type (logging, telemetry) decode
// their section from the same Source the application config came from.
type Source struct {
	k    *koanf.Koanf
	path string
}

// Open loads the config file (if present) and environment variables into a Source.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LLM_MODEL, AUDIT_MAX_ROUNDS, SERVER_PORT, etc.)
//  2. Config file (~/.config/regaudit/config.yaml by default, .toml also accepted)
//  3. Hardcoded defaults
//
// # Security Considerations
//
// The config file may hold the API key, so it MUST have 0600 or 0400
// permissions and live in ~/.config/regaudit/ or /etc/regaudit/. Files
// larger than 1MB are rejected.
//
// # Environment Variable Mapping
//
// Variables split on the first underscore into section and field:
//
//	LLM_AUDITOR_MODEL   -> llm.auditor_model
//	DOCUMENTS_SPEC_PATH -> documents.spec_path
//	EVENTS_NATS_URL     -> events.nats_url
func Open(configPath string) (*Source, error) {
	k := koanf.New(".")

	if configPath == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(dir, "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), parserFor(configPath)); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return &Source{k: k, path: configPath}, nil
}

// Path returns the config file path the Source was opened with.
func (s *Source) Path() string {
	return s.path
}

// Unmarshal decodes the named section into out.
// Fields absent from the source keep whatever value out already holds,
// so callers pass a struct pre-filled with defaults.
func (s *Source) Unmarshal(section string, out interface{}) error {
	if err := s.k.Unmarshal(section, out); err != nil {
		return fmt.Errorf("failed to unmarshal %q config: %w", section, err)
	}
	return nil
}

// App decodes, defaults and validates the application configuration.
func (s *Source) App() (*Config, error) {
	cfg := NewDefaultConfig()
	if err := s.k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFile loads the application configuration from configPath and the environment.
//
// Example:
//
//	cfg, err := config.LoadWithFile("")  // Use default path
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadWithFile(configPath string) (*Config, error) {
	src, err := Open(configPath)
	if err != nil {
		return nil, err
	}
	return src.App()
}

// EnsureConfigDir creates the regaudit config directory with 0700 permissions.
func EnsureConfigDir() error {
	dir, err := defaultConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return nil
}

// DefaultConfigDir returns ~/.config/regaudit.
func DefaultConfigDir() (string, error) {
	return defaultConfigDir()
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "regaudit"), nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name.
// Only the first underscore separates section from field.
func envKey(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// parserFor picks the koanf parser from the file extension. YAML is the default.
func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOMLParser()
	}
	return yaml.Parser()
}

// readConfigFile opens the file once and validates it through the same
// descriptor to avoid a TOCTOU race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigPath checks if path is in allowed directories.
// This validation runs even if the file doesn't exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Follow symlinks so a link can't escape the allowed directories.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolvedPath = absPath
	}

	dir, err := defaultConfigDir()
	if err != nil {
		return err
	}

	allowedDirs := []string{dir, "/etc/regaudit"}
	for _, allowed := range allowedDirs {
		if resolvedPath == allowed || strings.HasPrefix(resolvedPath, allowed+string(filepath.Separator)) {
			return nil
		}
	}

	return fmt.Errorf("config file must be in ~/.config/regaudit/ or /etc/regaudit/")
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}

// applyDefaults fills zero values that a file or environment may have cleared.
func applyDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel
	}
	if cfg.LLM.AuditorModel == "" {
		cfg.LLM.AuditorModel = cfg.LLM.Model
	}
	if !cfg.LLM.APIKey.IsSet() {
		cfg.LLM.APIKey = Secret(os.Getenv(credentialEnv))
	}

	if cfg.Audit.MaxRounds == 0 {
		cfg.Audit.MaxRounds = 4
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = NewDefaultConfig().Server.ShutdownTimeout
	}

	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "regaudit"
	}
}
