// Package documents produces the supporting documents an audit reviews.
//
// Which documents exist depends only on the impacted standards: IEC 62304
// yields a generated SRS, ISO 14971 a generated RMF, and ISO 13485 a fixed
// QMS placeholder.
package documents

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fyrsmithlabs/regaudit/internal/llm"
	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/fyrsmithlabs/regaudit/internal/secrets"
	"go.uber.org/zap"
)

// Document keys, in the order they are produced.
const (
	KeySRS = "SRS"
	KeyRMF = "RMF"
	KeyQMS = "QMS"
)

// QMSPlaceholder is attached for ISO 13485 without a model call.
const QMSPlaceholder = "QMS documentation placeholder"

// Role labels document generation calls.
const Role = "document_loader"

const (
	// SRSPrompt generates a Software Requirements Specification.
	SRSPrompt = "You are a technical writer. Generate a Software Requirements Specification (SRS) document based on the user's medical device software request. Include sections: Functional Requirements, Performance Requirements, Security Requirements, Interface Requirements, and Safety Requirements with IEC 62304 traceability."

	// RMFPrompt generates a Risk Management File.
	RMFPrompt = "You are a risk management specialist. Generate a Risk Management File (RMF) document based on the user's medical device software request following ISO 14971. Include a table with columns: ID, Hazard, Cause, Current Control, Risk Level. Identify potential hazards related to the proposed changes."
)

// Options configures a Loader.
type Options struct {
	// SpecPath is the technical specification file. Empty skips the read.
	SpecPath string

	// Redactor scrubs the specification before it is sent. Nil disables redaction.
	Redactor *secrets.Redactor

	// Notify receives one human-readable line per document fetched.
	Notify func(msg string)
}

// Loader is the load stage handler.
type Loader struct {
	llm      llm.Completer
	logger   *logging.Logger
	specPath string
	redactor *secrets.Redactor
	notify   func(string)
}

// NewLoader creates a Loader.
func NewLoader(completer llm.Completer, logger *logging.Logger, opts Options) *Loader {
	notify := opts.Notify
	if notify == nil {
		notify = func(string) {}
	}
	return &Loader{
		llm:      completer,
		logger:   logger,
		specPath: opts.SpecPath,
		redactor: opts.Redactor,
		notify:   notify,
	}
}

// Stage implements pipeline.Handler.
func (l *Loader) Stage() pipeline.Stage {
	return pipeline.StageLoad
}

// Execute implements pipeline.Handler. It writes LoadedDocuments.
func (l *Loader) Execute(ctx context.Context, state *pipeline.State) (*pipeline.StageResult, error) {
	technical := l.ReadTechnicalInput(ctx, l.specPath, state.UserRequest)

	docs, err := l.Load(ctx, state.ImpactedStandards, CombineInput(technical, state.UserRequest))
	if err != nil {
		return nil, err
	}
	state.LoadedDocuments = docs

	return &pipeline.StageResult{Output: strings.Join(docs.Keys(), ", ")}, nil
}

// ReadTechnicalInput returns the contents of path, redacted if configured.
// Any read failure is logged and userRequest is returned unchanged.
func (l *Loader) ReadTechnicalInput(ctx context.Context, path, userRequest string) string {
	if path == "" {
		l.logger.Warn(ctx, "technical specification not found, using user request only")
		return userRequest
	}

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn(ctx, "technical specification not found, using user request only",
			zap.String("path", path), zap.Error(err))
		return userRequest
	}
	l.logger.Info(ctx, "loaded technical specification",
		zap.String("path", path), zap.Int("bytes", len(data)))

	content := string(data)
	if l.redactor != nil {
		redacted, audit := l.redactor.Redact(path, content)
		if audit.Count() > 0 {
			l.logger.Warn(ctx, "redacted secrets from technical specification",
				zap.Int("count", audit.Count()),
				zap.Strings("rules", audit.Rules()))
		}
		content = redacted
	}
	return content
}

// CombineInput builds the text every generated document is based on.
func CombineInput(technical, userRequest string) string {
	return "Technical Specification:\n" + technical + "\n\nUser Request:\n" + userRequest
}

// Load produces the documents the standards call for. Each rule is
// evaluated independently; any generation failure aborts the load.
func (l *Loader) Load(ctx context.Context, standards []string, combined string) (pipeline.Documents, error) {
	var docs pipeline.Documents
	ctx = llm.WithRole(ctx, Role)

	if mentions(standards, "62304") {
		l.notify("Fetching Software Requirements Spec due to IEC 62304 impact...")
		text, err := l.llm.Complete(ctx, SRSPrompt, combined)
		if err != nil {
			return pipeline.Documents{}, fmt.Errorf("documents: generate SRS: %w", err)
		}
		docs.Set(KeySRS, text)
		l.logger.Info(ctx, "generated document", zap.String("document", KeySRS), zap.Int("chars", len(text)))
	}

	if mentions(standards, "14971") {
		l.notify("Fetching Risk Management File due to ISO 14971 impact...")
		text, err := l.llm.Complete(ctx, RMFPrompt, combined)
		if err != nil {
			return pipeline.Documents{}, fmt.Errorf("documents: generate RMF: %w", err)
		}
		docs.Set(KeyRMF, text)
		l.logger.Info(ctx, "generated document", zap.String("document", KeyRMF), zap.Int("chars", len(text)))
	}

	if mentions(standards, "13485") {
		l.notify("Fetching Quality Management System documentation due to ISO 13485 impact...")
		docs.Set(KeyQMS, QMSPlaceholder)
	}

	return docs, nil
}

func mentions(standards []string, marker string) bool {
	for _, s := range standards {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
