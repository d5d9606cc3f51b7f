// Package monitor renders a live terminal dashboard of pipeline runs.
package monitor

import (
	"fmt"
	"sort"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/regaudit/internal/events"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
	maxRuns         = 10
)

// RunView is the dashboard's view of one pipeline run.
type RunView struct {
	RunID       string
	UserRequest string
	Stage       pipeline.Stage
	Status      pipeline.Status
	Percentage  int
	Error       string
	StartedAt   time.Time
	UpdatedAt   time.Time
}

// Model represents the BubbleTea dashboard model
type Model struct {
	natsURL    string
	interval   time.Duration
	incoming   <-chan events.Event
	lastUpdate time.Time
	now        time.Time
	err        error
	quitting   bool

	runs         map[string]*RunView
	stageHistory map[pipeline.Stage][]float64
	completed    int
	failed       int
	runProgress  progress.Model
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	// For units and secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a dashboard fed by incoming. natsURL is shown in the
// header and error view only.
func NewModel(natsURL string, interval time.Duration, incoming <-chan events.Event) Model {
	return Model{
		natsURL:      natsURL,
		interval:     interval,
		incoming:     incoming,
		runs:         make(map[string]*RunView),
		stageHistory: make(map[pipeline.Stage][]float64),
		runProgress: progress.New(
			progress.WithGradient("#00ffff", "#00ff00"),
			progress.WithWidth(30),
		),
	}
}

// statusBadge returns a colored badge for a run status.
func statusBadge(status pipeline.Status) string {
	switch status {
	case pipeline.StatusCompleted:
		return healthyStyle.Render("[✓]")
	case pipeline.StatusFailed:
		return errorStyle.Render("[✗]")
	default:
		return warningStyle.Render("[…]")
	}
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type eventMsg events.Event
type errMsg error

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		waitForEvent(m.incoming),
	)
}

// tick creates a tick command for elapsed-time refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks until the next event arrives. A closed channel ends
// the feed with an error.
func waitForEvent(incoming <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-incoming
		if !ok {
			return errMsg(fmt.Errorf("event feed closed"))
		}
		return eventMsg(ev)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.clearFinished()
			return m, nil
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tick(m.interval)

	case eventMsg:
		m.apply(events.Event(msg))
		m.lastUpdate = time.Now()
		m.err = nil
		return m, waitForEvent(m.incoming)

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// apply folds one event into the run table.
func (m *Model) apply(ev events.Event) {
	run, ok := m.runs[ev.RunID]
	if !ok {
		run = &RunView{RunID: ev.RunID, StartedAt: ev.Timestamp, Status: pipeline.StatusInProgress}
		m.runs[ev.RunID] = run
	}
	run.UpdatedAt = ev.Timestamp

	switch ev.Kind {
	case events.KindStarted:
		run.UserRequest = ev.UserRequest
		run.StartedAt = ev.Timestamp
	case events.KindStage:
		run.Stage = ev.Stage
		run.Percentage = ev.Percentage
		if ev.Status == pipeline.StatusCompleted && ev.DurationMS > 0 {
			m.stageHistory[ev.Stage] = appendToHistory(m.stageHistory[ev.Stage], float64(ev.DurationMS)/1000)
		}
	case events.KindCompleted:
		run.Status = pipeline.StatusCompleted
		run.Percentage = 100
		m.completed++
	case events.KindFailed:
		run.Status = pipeline.StatusFailed
		run.Error = ev.Error
		m.failed++
	}
}

func (m *Model) clearFinished() {
	for id, run := range m.runs {
		if run.Status != pipeline.StatusInProgress {
			delete(m.runs, id)
		}
	}
}

// sortedRuns returns runs newest first, capped at maxRuns.
func (m Model) sortedRuns() []*RunView {
	runs := make([]*RunView, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if len(runs) > maxRuns {
		runs = runs[:maxRuns]
	}
	return runs
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return m.renderError()
	}
	return m.renderDashboard()
}

// renderError renders the error view
func (m Model) renderError() string {
	header := headerStyle.Render("regaudit Run Monitor")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Lost the run event feed") + "\n"
	content += "\n"
	content += dimStyle.Render("NATS: ") + valueStyle.Render(m.natsURL) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

// renderDashboard renders the run table and stage duration sparklines
func (m Model) renderDashboard() string {
	var content string

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}
	now := m.now
	if now.IsZero() {
		now = time.Now()
	}

	content += headerStyle.Render(" regaudit Monitor ") + "\n"
	content += fmt.Sprintf("%s %s   %s %s   %s %s   %s",
		dimStyle.Render("NATS:"), valueStyle.Render(m.natsURL),
		dimStyle.Render("Completed:"), healthyStyle.Render(fmt.Sprintf("%d", m.completed)),
		dimStyle.Render("Failed:"), errorStyle.Render(fmt.Sprintf("%d", m.failed)),
		dimStyle.Render(lastUpdateStr)) + "\n"

	content += "\n" + sectionStyle.Render("┃ Runs") + "\n"
	runs := m.sortedRuns()
	if len(runs) == 0 {
		content += dimStyle.Render("  Waiting for runs...") + "\n"
	}
	for _, run := range runs {
		stage := string(run.Stage)
		if stage == "" {
			stage = "-"
		}
		end := now
		if run.Status != pipeline.StatusInProgress {
			end = run.UpdatedAt
		}
		content += "  " + statusBadge(run.Status) + " " +
			valueStyle.Render(ShortID(run.RunID)) + "  " +
			labelStyle.Render(fmt.Sprintf("%-7s", stage)) + " " +
			m.runProgress.ViewAs(float64(run.Percentage)/100) + " " +
			dimStyle.Render(FormatElapsed(end.Sub(run.StartedAt))) + "\n"
		if run.UserRequest != "" {
			content += dimStyle.Render("      "+Truncate(run.UserRequest, 60)) + "\n"
		}
		if run.Error != "" {
			content += errorStyle.Render("      "+Truncate(run.Error, 60)) + "\n"
		}
	}

	content += "\n" + sectionStyle.Render("┃ Stage Durations") + "\n"
	for _, stage := range pipeline.AllStages() {
		history := m.stageHistory[stage]
		last := "-"
		if n := len(history); n > 0 {
			last = FormatLatency(history[n-1])
		}
		content += labelStyle.Render(fmt.Sprintf("  %-7s ", stage)) +
			valueStyle.Render(fmt.Sprintf("%8s", last)) + "   " +
			createSparkline(history) + "\n"
	}

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[c]") + footerStyle.Render(" clear finished")
	content += "\n" + footer

	return containerStyle.Render(content)
}
