// Package http serves the audit pipeline over HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/fyrsmithlabs/regaudit/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Auditor runs one pipeline for a change request.
type Auditor interface {
	Run(ctx context.Context, userRequest string) (*pipeline.State, error)
}

// Server provides HTTP endpoints for regaudit.
type Server struct {
	echo      *echo.Echo
	auditor   Auditor
	logger    *logging.Logger
	config    *Config
	telemetry *telemetry.Telemetry
	runs      runCounter
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// Option configures a Server.
type Option func(*Server)

// WithTelemetry reports exporter health on the status endpoint and records
// request metrics on its meter.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(s *Server) { s.telemetry = tel }
}

// NewServer creates a new HTTP server.
func NewServer(auditor Auditor, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if auditor == nil {
		return nil, fmt.Errorf("auditor cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		auditor: auditor,
		logger:  logger,
		config:  cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	var meter metric.Meter
	if s.telemetry != nil {
		meter = s.telemetry.Meter(httpInstrumentationName)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())
	e.Use(NewHTTPMetrics(meter, logger).MetricsMiddleware())

	s.registerRoutes()
	return s, nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			s.logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/audits", s.handleAudit)
	v1.GET("/status", s.handleStatus)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	resp := StatusResponse{
		Status:  "ok",
		Version: s.config.Version,
		Runs:    s.runs.snapshot(),
	}
	if s.telemetry != nil {
		health := s.telemetry.Health()
		resp.Telemetry = &health
		if health.Degraded {
			resp.Status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleAudit runs one pipeline synchronously on the request context.
func (s *Server) handleAudit(c echo.Context) error {
	ctx := c.Request().Context()

	var req AuditRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid audit request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Request) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request field is required")
	}

	s.runs.start()
	state, err := s.auditor.Run(ctx, strings.TrimSpace(req.Request))
	s.runs.finish(err)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Warn(ctx, "audit cancelled by client", zap.Error(err))
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, newAuditResponse(state))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
