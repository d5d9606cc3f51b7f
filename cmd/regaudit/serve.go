package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	regaudithttp "github.com/fyrsmithlabs/regaudit/internal/http"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the compliance audit HTTP API",
	Long: `Start the HTTP API. Each POST /api/v1/audits runs one pipeline.

Endpoints:
  GET  /health          liveness
  GET  /metrics         Prometheus metrics
  GET  /api/v1/status   run counters and telemetry health
  POST /api/v1/audits   {"request": "..."}

Examples:
  regaudit serve
  SERVER_PORT=8080 EVENTS_NATS_URL=nats://localhost:4222 regaudit serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
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

	srv, err := regaudithttp.NewServer(r, a.logger, &regaudithttp.Config{
		Host:    a.cfg.Server.Host,
		Port:    a.cfg.Server.Port,
		Version: version,
	}, regaudithttp.WithTelemetry(a.telemetry))
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
