package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

const previewLen = 4

// Redactor replaces secrets in text with [REDACTED:rule-id:preview] markers.
//
// Building the gitleaks detector compiles several hundred rules, so a
// Redactor is built once and reused. Detection itself is serialized because
// the detector keeps per-scan state.
type Redactor struct {
	mu       sync.Mutex
	detector *detect.Detector
}

// NewRedactor builds a detector from the default gitleaks rules plus allowlist.
func NewRedactor(allowlist *Allowlist) (*Redactor, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("creating gitleaks detector: %w", err)
	}
	if !allowlist.Empty() {
		if err := applyAllowlist(&detector.Config, allowlist); err != nil {
			return nil, err
		}
	}
	return &Redactor{detector: detector}, nil
}

// Redact returns content with every detected secret replaced, and an audit
// log of what was removed. source labels the audit log only.
func (r *Redactor) Redact(source, content string) (string, AuditLog) {
	start := time.Now()

	r.mu.Lock()
	findings := r.detector.DetectString(content)
	r.mu.Unlock()

	audit := AuditLog{
		Timestamp:  start,
		Source:     source,
		Redactions: make([]Redaction, 0, len(findings)),
		RuleCounts: make(map[string]int),
	}

	// Longest first so a secret that contains another is replaced whole.
	sort.SliceStable(findings, func(i, j int) bool {
		return len(findings[i].Secret) > len(findings[j].Secret)
	})

	redacted := content
	for _, f := range findings {
		if f.Secret == "" {
			continue
		}
		audit.Redactions = append(audit.Redactions, Redaction{
			RuleID:      f.RuleID,
			RuleDesc:    f.Description,
			Line:        f.StartLine + 1,
			OriginalLen: len(f.Secret),
			Preview:     preview(f.Secret),
		})
		audit.RuleCounts[f.RuleID]++

		marker := fmt.Sprintf("[REDACTED:%s:%s]", f.RuleID, preview(f.Secret))
		redacted = strings.ReplaceAll(redacted, f.Secret, marker)
	}

	audit.Elapsed = time.Since(start)
	return redacted, audit
}

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen]
}

// applyAllowlist adds a global gitleaks allowlist built from a.
func applyAllowlist(cfg *gitleaksConfig.Config, a *Allowlist) error {
	global := &gitleaksConfig.Allowlist{
		Description: "regaudit document allowlist",
		StopWords:   append([]string(nil), a.StopWords...),
	}
	for _, pattern := range a.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidRegex, pattern, err)
		}
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}
	cfg.Allowlists = append(cfg.Allowlists, global)
	return nil
}
