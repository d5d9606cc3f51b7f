package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/regaudit/internal/config"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
)

const (
	replTitle    = "Medical Device Compliance Agent"
	replHint     = "Type 'quit' or 'exit' to stop"
	replPrompt   = "Enter your compliance request: "
	replGoodbye  = "Exiting Compliance System."
	reportHeader = "\n\n================ GENERATED FINAL REPORT ================\n"
	reportFooter = "========================================================\n"
)

// auditor runs one pipeline for a change request.
type auditor interface {
	Run(ctx context.Context, userRequest string) (*pipeline.State, error)
}

// lineReader reads one line of input. liner.State satisfies it.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// session is the interactive prompt loop.
type session struct {
	in     lineReader
	out    io.Writer
	render func(string) string
}

// run prompts until quit, EOF or Ctrl-C. A pipeline failure ends the loop
// with the error.
func (s *session) run(ctx context.Context, a auditor) error {
	fmt.Fprintln(s.out, replTitle)
	fmt.Fprintln(s.out, replHint)
	fmt.Fprintln(s.out)

	for {
		input, err := s.in.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				fmt.Fprintln(s.out, replGoodbye)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		s.in.AppendHistory(input)

		switch strings.ToLower(input) {
		case "quit", "exit":
			fmt.Fprintln(s.out, replGoodbye)
			return nil
		}

		fmt.Fprintf(s.out, "\nStarting Compliance System with input: '%s'\n\n", input)
		state, err := a.Run(ctx, input)
		if err != nil {
			return err
		}
		writeReport(s.out, state.FinalReportContent, s.render)
	}
}

// writeReport prints the framed report.
func writeReport(w io.Writer, report string, render func(string) string) {
	if render != nil {
		report = render(report)
	}
	fmt.Fprint(w, reportHeader)
	fmt.Fprintln(w, report)
	fmt.Fprint(w, reportFooter)
}

// markdownRenderer returns a glamour renderer, or nil when styled output
// is off or the renderer cannot start.
func markdownRenderer(enabled bool) func(string) string {
	if !enabled {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil
	}
	return func(content string) string {
		rendered, err := r.Render(content)
		if err != nil {
			return content
		}
		return rendered
	}
}

// stderrNotify prints stage banners as progress lines.
func stderrNotify(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// historyFile is the prompt history path inside the config directory.
func historyFile() string {
	dir, err := config.DefaultConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "history")
}

func runREPL(cmd *cobra.Command, args []string) error {
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

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	history := historyFile()
	if f, err := os.Open(history); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if err := config.EnsureConfigDir(); err != nil {
			return
		}
		f, err := os.OpenFile(history, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = line.WriteHistory(f)
	}()

	s := &session{
		in:     line,
		out:    os.Stdout,
		render: markdownRenderer(pretty),
	}
	return s.run(ctx, r)
}
