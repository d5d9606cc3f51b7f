package secrets

import (
	"encoding/json"
	"time"
)

// AuditLog records what a redaction pass removed. It never holds a secret value.
type AuditLog struct {
	Timestamp  time.Time      `json:"timestamp"`
	Source     string         `json:"source,omitempty"`
	Redactions []Redaction    `json:"redactions"`
	RuleCounts map[string]int `json:"rule_counts"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
}

// Redaction describes one removed secret.
type Redaction struct {
	RuleID      string `json:"rule_id"`
	RuleDesc    string `json:"rule_desc"`
	Line        int    `json:"line"` // 1-based
	OriginalLen int    `json:"original_len"`
	Preview     string `json:"preview"`
}

// Count returns the number of redacted secrets.
func (a *AuditLog) Count() int {
	return len(a.Redactions)
}

// Rules returns the distinct rule IDs that fired.
func (a *AuditLog) Rules() []string {
	rules := make([]string, 0, len(a.RuleCounts))
	for id := range a.RuleCounts {
		rules = append(rules, id)
	}
	return rules
}

// JSON returns the audit log as compact JSON.
func (a *AuditLog) JSON() string {
	data, err := json.Marshal(a)
	if err != nil {
		return "{}"
	}
	return string(data)
}
