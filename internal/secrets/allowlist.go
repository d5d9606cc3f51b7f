package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

// AllowlistFile is the allowlist file name looked up in the allowlist directory.
const AllowlistFile = ".gitleaks.toml"

// Allowlist holds content patterns exempt from redaction, such as
// placeholder keys that appear in specification examples.
type Allowlist struct {
	Regexes   []string
	StopWords []string
}

// LoadAllowlist reads dir/.gitleaks.toml. An empty dir or a missing file
// yields an empty allowlist.
func LoadAllowlist(dir string) (*Allowlist, error) {
	if dir == "" {
		return &Allowlist{}, nil
	}

	path := filepath.Join(dir, AllowlistFile)
	var file struct {
		Allowlist struct {
			Regexes   []string `toml:"regexes"`
			StopWords []string `toml:"stopwords"`
		} `toml:"allowlist"`
	}

	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Allowlist{}, nil
		}
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	for _, pattern := range file.Allowlist.Regexes {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: %q in %s: %v", ErrInvalidRegex, pattern, path, err)
		}
	}

	return &Allowlist{
		Regexes:   file.Allowlist.Regexes,
		StopWords: file.Allowlist.StopWords,
	}, nil
}

// Empty reports whether the allowlist exempts nothing.
func (a *Allowlist) Empty() bool {
	return a == nil || (len(a.Regexes) == 0 && len(a.StopWords) == 0)
}
