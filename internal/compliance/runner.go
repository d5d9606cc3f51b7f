// Package compliance assembles the audit pipeline and runs it for one
// change request at a time.
package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/regaudit/internal/audit"
	"github.com/fyrsmithlabs/regaudit/internal/config"
	"github.com/fyrsmithlabs/regaudit/internal/documents"
	"github.com/fyrsmithlabs/regaudit/internal/events"
	"github.com/fyrsmithlabs/regaudit/internal/llm"
	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/fyrsmithlabs/regaudit/internal/planner"
	"github.com/fyrsmithlabs/regaudit/internal/report"
	"github.com/fyrsmithlabs/regaudit/internal/secrets"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Options configures a Runner.
type Options struct {
	Config    *config.Config
	Logger    *logging.Logger
	Tracer    trace.Tracer
	Publisher events.Publisher

	// Completer serves the planner and document loader. Nil builds an
	// OpenAI client from Config.
	Completer llm.Completer

	// AuditorCompleter serves the audit specialists. Nil builds an OpenAI
	// client for the auditor model from Config.
	AuditorCompleter llm.Completer

	// Notify receives human-readable stage banners. Nil discards them.
	Notify func(msg string)
}

// Runner executes the four stages for each request. It is safe for
// concurrent use; every run gets its own state and executor.
type Runner struct {
	cfg       *config.Config
	logger    *logging.Logger
	tracer    trace.Tracer
	publisher events.Publisher
	notify    func(string)

	planner     *planner.Planner
	loader      *documents.Loader
	coordinator *audit.Coordinator
	compiler    *report.Compiler
}

// New wires the stage handlers.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = config.NewDefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("regaudit")
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Notify == nil {
		opts.Notify = func(string) {}
	}
	cfg := opts.Config

	general, auditor, err := buildCompleters(opts)
	if err != nil {
		return nil, err
	}

	redactor, err := buildRedactor(cfg.Documents)
	if err != nil {
		return nil, err
	}

	conv := audit.NewConversation(auditor, opts.Logger.Named("audit"),
		audit.WithMaxRounds(cfg.Audit.MaxRounds))

	return &Runner{
		cfg:       cfg,
		logger:    opts.Logger,
		tracer:    opts.Tracer,
		publisher: opts.Publisher,
		notify:    opts.Notify,
		planner:   planner.New(general, opts.Logger.Named("planner")),
		loader: documents.NewLoader(general, opts.Logger.Named("documents"), documents.Options{
			SpecPath: cfg.Documents.SpecPath,
			Redactor: redactor,
			Notify:   opts.Notify,
		}),
		coordinator: audit.NewCoordinator(conv),
		compiler:    report.NewCompiler(),
	}, nil
}

// buildCompleters returns the general and auditor completers. Both share
// one rate limiter and are instrumented.
func buildCompleters(opts Options) (llm.Completer, llm.Completer, error) {
	cfg := opts.Config.LLM
	limiter := llm.NewLimiter(cfg.RateLimit, cfg.Burst)
	logger := opts.Logger.Named("llm")

	wrap := func(c llm.Completer) llm.Completer {
		return llm.NewInstrumented(llm.WithLimiter(c, limiter), logger, opts.Tracer)
	}

	general := opts.Completer
	if general == nil {
		client, err := llm.NewOpenAI(llm.OpenAIOptions{
			Model:     cfg.Model,
			APIKey:    cfg.APIKey.Value(),
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout.Duration(),
		})
		if err != nil {
			return nil, nil, err
		}
		general = client
	}

	auditor := opts.AuditorCompleter
	switch {
	case auditor != nil:
	case opts.Completer != nil:
		auditor = opts.Completer
	default:
		client, err := llm.NewOpenAI(llm.OpenAIOptions{
			Model:     cfg.AuditorModel,
			APIKey:    cfg.APIKey.Value(),
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.AuditorMaxTokens,
			Timeout:   cfg.Timeout.Duration(),
		})
		if err != nil {
			return nil, nil, err
		}
		auditor = client
	}

	return wrap(general), wrap(auditor), nil
}

func buildRedactor(cfg config.DocumentsConfig) (*secrets.Redactor, error) {
	if !cfg.RedactSecrets {
		return nil, nil
	}
	allowlist, err := secrets.LoadAllowlist(cfg.AllowlistDir)
	if err != nil {
		return nil, fmt.Errorf("load secret allowlist: %w", err)
	}
	redactor, err := secrets.NewRedactor(allowlist)
	if err != nil {
		return nil, fmt.Errorf("create secret redactor: %w", err)
	}
	return redactor, nil
}

// Run executes one pipeline. The returned state is non-nil even on error
// and records the failed stage.
func (r *Runner) Run(ctx context.Context, userRequest string) (*pipeline.State, error) {
	state := pipeline.NewState(userRequest)
	ctx = logging.WithRunID(ctx, state.RunID)

	exec := pipeline.NewExecutor(r.logger.Named("pipeline"), r.tracer)
	exec.RegisterHandler(r.planner)
	exec.RegisterHandler(r.loader)
	exec.RegisterHandler(r.coordinator)
	exec.RegisterHandler(r.compiler)
	exec.RegisterGate(pipeline.StageLoad, pipeline.NewStandardsGate())
	exec.RegisterGate(pipeline.StageAudit, pipeline.NewDocumentsGate())
	exec.OnProgress(func(p pipeline.StageProgress) {
		r.announce(p, state)
		r.publisher.Publish(ctx, events.Progress(p))
	})

	r.publisher.Publish(ctx, events.Started(state))

	if err := exec.Execute(ctx, state); err != nil {
		r.publisher.Publish(ctx, events.Failed(state, err))
		r.logger.Error(ctx, "compliance run failed",
			zap.String("stage", string(state.Stage)), zap.Error(err))
		return state, err
	}

	r.publisher.Publish(ctx, events.Completed(state))
	return state, nil
}

var stageBanners = map[pipeline.Stage]string{
	pipeline.StagePlan:   "\n--- [Stage 1] Orchestrator: Planning Compliance Scope ---",
	pipeline.StageLoad:   "\n--- [Stage 1] Data Loader: Fetching Technical Documentation ---",
	pipeline.StageAudit:  "\n--- [Stage 2] Audit Loop: Iterative Audit & QA ---",
	pipeline.StageReport: "\n--- [Stage 3] Report Compiler: Generating Final Compliance Report ---",
}

func (r *Runner) announce(p pipeline.StageProgress, state *pipeline.State) {
	switch p.Status {
	case pipeline.StatusInProgress:
		r.notify(stageBanners[p.Stage])
	case pipeline.StatusCompleted:
		switch p.Stage {
		case pipeline.StagePlan:
			r.notify("Impacted Standards identified: [" + strings.Join(state.ImpactedStandards, ", ") + "]")
		case pipeline.StageReport:
			r.notify("Report generated successfully.")
		}
	}
}
