package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var auditJSON bool

// auditCmd runs a single request without the prompt
var auditCmd = &cobra.Command{
	Use:   "audit <request>",
	Short: "Run one compliance audit and print the report",
	Long: `Run the full pipeline for one change request and print the framed report.

Examples:
  # Audit a firmware change
  regaudit audit "Update the alarm thresholds in the infusion pump firmware"

  # Full pipeline state as JSON
  regaudit audit --json "Add a new sterilization supplier" | jq .audit_findings`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print the full pipeline state as JSON")
	auditCmd.Flags().BoolVar(&pretty, "pretty", false, "render the report as styled Markdown")
}

func runAudit(cmd *cobra.Command, args []string) error {
	request := strings.TrimSpace(strings.Join(args, " "))
	if request == "" {
		return fmt.Errorf("request is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()
	a.connectEvents(ctx)

	r, err := a.runner(stderrNotify)
	if err != nil {
		return err
	}

	state, err := r.Run(ctx, request)
	if err != nil {
		return err
	}

	if auditJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}
	writeReport(cmd.OutOrStdout(), state.FinalReportContent, markdownRenderer(pretty))
	return nil
}
