package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/regaudit/internal/mcp"
)

// mcpCmd serves the compliance_audit tool over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the compliance_audit tool over MCP stdio",
	Long: `Run an MCP server on stdin/stdout exposing the compliance_audit tool.

Logs go to stderr so they never corrupt the protocol stream.

Example MCP client entry:
  {"command": "regaudit", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()
	a.connectEvents(ctx)

	r, err := a.runner(nil)
	if err != nil {
		return err
	}

	cfg := mcp.DefaultConfig()
	cfg.Version = version
	cfg.Logger = a.logger
	cfg.Meter = a.telemetry.Meter("regaudit/mcp")

	srv, err := mcp.NewServer(cfg, r)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	if err := srv.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	return nil
}
