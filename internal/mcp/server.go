package mcp

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/metric"
)

// Auditor runs one pipeline for a change request.
type Auditor interface {
	Run(ctx context.Context, userRequest string) (*pipeline.State, error)
}

// Server is an MCP server backed by an Auditor.
type Server struct {
	mcp     *mcp.Server
	auditor Auditor
	metrics *auditMetrics
	logger  *logging.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "regaudit")
	Name string

	// Version is the server version (default: "0.1.0")
	Version string

	// Logger for structured logging
	Logger *logging.Logger

	// Meter records audit call metrics. Nil uses the global meter provider.
	Meter metric.Meter
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "regaudit",
		Version: "0.1.0",
		Logger:  logging.NewNop(),
	}
}

// NewServer creates an MCP server and registers its tools.
func NewServer(cfg *Config, auditor Auditor) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if auditor == nil {
		return nil, fmt.Errorf("auditor is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		auditor: auditor,
		metrics: newAuditMetrics(cfg.Meter, cfg.Logger),
		logger:  cfg.Logger,
	}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Connect serves one session over transport. It is used by tests and by
// callers that embed the server behind their own transport.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, transport, nil)
}
