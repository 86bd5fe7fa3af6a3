// Package tui is a terminal watch view of every timer: a progress bar,
// the countdown and the cycle number, refreshed a few times a second.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/timely/internal/logic"
	"github.com/sweeney/timely/internal/store"
)

// RefreshInterval is how often the view recomputes states.
const RefreshInterval = 250 * time.Millisecond

// Source supplies configs and settings. *store.Store satisfies it.
type Source interface {
	Configs() []logic.TimerConfig
	Settings() store.Settings
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22d3ee"))
	nameStyle   = lipgloss.NewStyle().Bold(true).Width(20)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f97316"))
	remainStyle = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
)

type tickMsg time.Time

type row struct {
	cfg   logic.TimerConfig
	state logic.TimerState
	err   error
}

// Model is the bubbletea model for the watch view.
type Model struct {
	src    Source
	now    func() time.Time
	bar    progress.Model
	rows   []row
	epochs map[string]time.Time
	at     time.Time
}

// New creates the watch model. now defaults to time.Now.
func New(src Source, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 30
	m := Model{src: src, now: now, bar: bar, epochs: make(map[string]time.Time)}
	return m.refresh(now())
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles keys, resizes and refresh ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		w := msg.Width - nameStyle.GetWidth() - remainStyle.GetWidth() - 16
		if w < 10 {
			w = 10
		}
		m.bar.Width = w
	case tickMsg:
		return m.refresh(m.now()), tick()
	}
	return m, nil
}

// refresh recomputes every state at now. Now-mode timers without a start
// time count from the first refresh that saw them.
func (m Model) refresh(now time.Time) Model {
	weekStart := m.src.Settings().WeekStart()
	configs := m.src.Configs()

	rows := make([]row, 0, len(configs))
	for _, cfg := range configs {
		if cfg.StartMode != logic.StartAligned && cfg.FixedStartTime == nil {
			epoch, ok := m.epochs[cfg.ID]
			if !ok {
				epoch = now
				m.epochs[cfg.ID] = epoch
			}
			cfg.FixedStartTime = &epoch
		}
		st, err := logic.ComputeStateWeekStart(cfg, now, weekStart)
		rows = append(rows, row{cfg: cfg, state: st, err: err})
	}
	m.rows = rows
	m.at = now
	return m
}

// View renders the timer list.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Timely") + "  " + mutedStyle.Render(m.at.Format("15:04:05")) + "\n\n")

	if len(m.rows) == 0 {
		b.WriteString(mutedStyle.Render("No timers configured.") + "\n")
	}
	for _, r := range m.rows {
		b.WriteString(m.renderRow(r) + "\n")
	}

	b.WriteString("\n" + mutedStyle.Render("q to quit"))
	return b.String()
}

func (m Model) renderRow(r row) string {
	name := nameStyle.Render(r.cfg.Name)
	if r.err != nil {
		return lipgloss.JoinHorizontal(lipgloss.Top, name, errorStyle.Render(r.err.Error()))
	}

	remaining := logic.FormatTimeRemaining(r.state.Remaining)
	cycle := fmt.Sprintf("  #%d", r.state.CycleCount)
	if !r.cfg.Enabled {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			name, m.bar.ViewAs(r.state.Progress), remainStyle.Render("paused"), mutedStyle.Render(cycle))
	}
	if r.state.Elapsed < 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			name, m.bar.ViewAs(0), mutedStyle.Render("  starts in "+logic.FormatDuration(-r.state.Elapsed, true)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		name, m.bar.ViewAs(r.state.Progress), remainStyle.Render(remaining), mutedStyle.Render(cycle))
}

// Run shows the watch view until the user quits.
func Run(src Source) error {
	p := tea.NewProgram(New(src, time.Now), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
