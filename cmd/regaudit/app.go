package main

import (
	"context"
	"fmt"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/regaudit/internal/compliance"
	"github.com/fyrsmithlabs/regaudit/internal/config"
	"github.com/fyrsmithlabs/regaudit/internal/events"
	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/telemetry"
)

// app holds the process-wide services every command starts from.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	publisher events.Publisher
}

// setup loads configuration and starts logging and telemetry. With
// requireCredential set a missing API key is fatal before anything else
// happens.
func setup(ctx context.Context, requireCredential bool) (*app, error) {
	src, err := config.Open(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := src.App()
	if err != nil {
		return nil, err
	}
	if requireCredential {
		if err := cfg.RequireCredential(); err != nil {
			return nil, err
		}
	}

	logCfg := logging.NewDefaultConfig()
	if err := src.Unmarshal("logging", logCfg); err != nil {
		return nil, err
	}
	var logProvider otellog.LoggerProvider
	if logCfg.Output.OTEL {
		logProvider = global.GetLoggerProvider()
	}
	logger, err := logging.NewLogger(logCfg, logProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	telCfg := telemetry.NewDefaultConfig()
	if err := src.Unmarshal("telemetry", telCfg); err != nil {
		return nil, err
	}
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return nil, err
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("problems", h.Problems))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		publisher: events.Nop{},
	}, nil
}

// connectEvents switches the app to a NATS publisher when events.nats_url
// is set. A connection failure leaves the no-op publisher in place.
func (a *app) connectEvents(ctx context.Context) {
	if a.cfg.Events.NATSURL == "" {
		return
	}
	nc, err := events.Connect(a.cfg.Events.NATSURL)
	if err != nil {
		a.logger.Warn(ctx, "events disabled: NATS unavailable",
			zap.String("url", a.cfg.Events.NATSURL),
			zap.Error(err))
		return
	}
	a.publisher = events.NewNATSPublisher(nc, a.cfg.Events.SubjectPrefix, a.logger)
	a.logger.Info(ctx, "publishing run events", zap.String("url", a.cfg.Events.NATSURL))
}

// runner builds the pipeline. notify receives stage banners; nil drops them.
func (a *app) runner(notify func(string)) (*compliance.Runner, error) {
	return compliance.New(compliance.Options{
		Config:    a.cfg,
		Logger:    a.logger,
		Tracer:    a.telemetry.Tracer("regaudit"),
		Publisher: a.publisher,
		Notify:    notify,
	})
}

// close releases the publisher and flushes telemetry and logs.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.publisher.Close(); err != nil {
		a.logger.Warn(ctx, "failed to close event publisher", zap.Error(err))
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
