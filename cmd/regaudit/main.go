// Regaudit runs regulatory compliance audits of medical device change
// requests.
//
// Usage:
//
//	# Interactive prompt
//	regaudit
//
//	# One request, report on stdout
//	regaudit audit "Replace the infusion pump alarm firmware"
//
//	# HTTP API, MCP stdio server and the live run dashboard
//	regaudit serve
//	regaudit mcp
//	regaudit watch
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	// configPath overrides ~/.config/regaudit/config.yaml
	configPath string
	// pretty renders reports through glamour
	pretty bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "regaudit",
	Short: "Medical device compliance audits from the command line",
	Long: `regaudit plans the regulatory scope of a change request, loads the
technical documentation, runs an audit conversation between IEC 62304,
ISO 14971 and ISO 13485 specialists, and compiles a compliance report.

Without a subcommand it starts the interactive prompt.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runREPL,
}

// runCmd is the explicit form of the interactive prompt
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive compliance prompt",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/regaudit/config.yaml)")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "render the report as styled Markdown")
	runCmd.Flags().BoolVar(&pretty, "pretty", false, "render the report as styled Markdown")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(watchCmd)
}
