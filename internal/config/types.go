package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration read from strings such as "90s" in a YAML or
// TOML config file or an environment variable like LLM_TIMEOUT. Negative
// values are rejected.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Secret holds the completion API key. Every printing and encoding path
// yields a fixed marker, so a dumped Config never carries the key.
type Secret string

const redacted = "[REDACTED]"

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return "Secret(" + redacted + ")"
}

// Value returns the key itself.
func (s Secret) Value() string {
	return string(s)
}

// IsSet reports whether a key was configured.
func (s Secret) IsSet() bool {
	return s != ""
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText stores the raw key.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}
