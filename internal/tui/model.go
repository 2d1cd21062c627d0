// Package tui is the terminal front-end for the client-driven loop.
// The loop runs in its own goroutine and reports through a channel;
// quitting raises the loop's stop flag and waits for it to wind down.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/driver"
	"token-launchpad/internal/orchestrator"
)

const (
	maxLogLines   = 200
	eventBuffer   = 256
	defaultWidth  = 100
	defaultHeight = 24
)

type logMsg domain.LogEntry

type doneMsg struct {
	summary *driver.LoopSummary
}

// Options for creating Model.
type Options struct {
	Source   orchestrator.TokenSource
	Deployer orchestrator.Deployer
	Config   driver.LoopConfig
}

// Model is the bubbletea model for a client-driven run.
type Model struct {
	loop   *driver.Loop
	cfg    driver.LoopConfig
	events chan domain.LogEntry
	ctx    context.Context
	cancel context.CancelFunc

	spinner  spinner.Model
	viewport viewport.Model
	lines    []string
	width    int

	deployed int
	failed   int
	skipped  int
	stopping bool
	summary  *driver.LoopSummary
}

// New creates a model; the loop starts when the program runs Init.
func New(opts Options) *Model {
	events := make(chan domain.LogEntry, eventBuffer)
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))

	return &Model{
		loop: driver.NewLoop(driver.LoopOptions{
			Source:   opts.Source,
			Deployer: opts.Deployer,
			OnEvent: func(e domain.LogEntry) {
				select {
				case events <- e:
				case <-ctx.Done():
				}
			},
		}),
		cfg:      opts.Config,
		events:   events,
		ctx:      ctx,
		cancel:   cancel,
		spinner:  sp,
		viewport: viewport.New(defaultWidth, defaultHeight-6),
		width:    defaultWidth,
	}
}

// Summary returns the loop summary once the loop has ended.
func (m *Model) Summary() *driver.LoopSummary {
	return m.summary
}

// Init starts the loop, the event pump and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runLoop(), m.waitForEvent())
}

func (m *Model) runLoop() tea.Cmd {
	return func() tea.Msg {
		return doneMsg{summary: m.loop.Run(m.ctx, m.cfg)}
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-m.events:
			return logMsg(e)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.summary != nil {
				return m, tea.Quit
			}
			if m.stopping {
				m.cancel()
				return m, tea.Quit
			}
			m.stopping = true
			m.loop.Stop()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(3, msg.Height-6)
		m.refresh()

	case logMsg:
		m.append(domain.LogEntry(msg))
		return m, m.waitForEvent()

	case doneMsg:
		m.summary = msg.summary
		m.drain()
		return m, nil

	case spinner.TickMsg:
		if m.summary != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// drain moves events emitted before the loop returned into the log.
func (m *Model) drain() {
	for {
		select {
		case e := <-m.events:
			m.append(e)
		default:
			return
		}
	}
}

func (m *Model) append(e domain.LogEntry) {
	switch e.Kind {
	case domain.LogSuccess:
		m.deployed++
	case domain.LogError:
		m.failed++
	case domain.LogSkip:
		m.skipped++
	}
	m.lines = append(m.lines, renderEntry(e))
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444"))
)

func renderEntry(e domain.LogEntry) string {
	style := mutedStyle
	switch e.Kind {
	case domain.LogSuccess:
		style = successStyle
	case domain.LogError:
		style = errorStyle
	case domain.LogSkip:
		style = skipStyle
	}
	return mutedStyle.Render(e.Time) + " " + style.Render(e.Message)
}

// View renders the screen.
func (m *Model) View() string {
	t := m.cfg.Target
	header := titleStyle.Render(fmt.Sprintf("token-launchpad  %s via %s", t.Launchpad, t.Agent))

	var status string
	switch {
	case m.summary != nil:
		status = fmt.Sprintf("finished (%s): %d deployed in %d attempts", m.summary.Reason, m.summary.Deployed, m.summary.Attempts)
	case m.stopping:
		status = m.spinner.View() + " stopping after the current attempt..."
	default:
		status = m.spinner.View() + fmt.Sprintf(" running  deployed %d/%d", m.deployed, m.cfg.MaxDeployments)
	}
	counts := mutedStyle.Render(fmt.Sprintf("ok %d  failed %d  skipped %d", m.deployed, m.failed, m.skipped))

	hint := "q stop"
	if m.stopping || m.summary != nil {
		hint = "q quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		status+"  "+counts,
		boxStyle.Width(max(20, m.width-2)).Render(m.viewport.View()),
		mutedStyle.Render(hint),
	)
}
