package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/regaudit/internal/events"
	"github.com/fyrsmithlabs/regaudit/internal/monitor"
)

var (
	watchURL      string
	watchInterval time.Duration
)

// watchCmd shows live pipeline runs from NATS
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of pipeline runs",
	Long: `Subscribe to run events on NATS and show in-flight runs, their current
stage and recent stage durations.

Runs appear when another regaudit process publishes events, i.e. has
events.nats_url set.

Examples:
  regaudit watch --nats nats://localhost:4222`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "nats", "", "NATS URL (default events.nats_url)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "elapsed-time refresh interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	url := watchURL
	if url == "" {
		url = a.cfg.Events.NATSURL
	}
	if url == "" {
		return fmt.Errorf("no NATS URL: pass --nats or set events.nats_url")
	}

	nc, err := events.Connect(url)
	if err != nil {
		return err
	}
	defer nc.Close()

	incoming := make(chan events.Event, 256)
	sub, err := events.Subscribe(nc, a.cfg.Events.SubjectPrefix, func(ev events.Event) {
		select {
		case incoming <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	p := tea.NewProgram(
		monitor.NewModel(url, watchInterval, incoming),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
