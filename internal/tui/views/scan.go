package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/tui/styles"
	"github.com/buemura/zapx/pkg/types"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScanCompleteMsg is sent when the run ends, successfully or not. Results
// holds every step that ran, the failed one included.
type ScanCompleteMsg struct {
	Results []types.ScanResult
	Err     error
}

// stepDoneMsg is sent when one step returns.
type stepDoneMsg struct {
	index  int
	result types.ScanResult
	err    error
}

// ScanModel is the view model for a run in progress. Steps execute one at a
// time, each as its own command, so the view updates between steps.
type ScanModel struct {
	ctx     context.Context
	spinner spinner.Model
	runner  *scanner.Runner
	steps   []string
	target  types.Target
	opts    scanner.Options

	current int
	results []types.ScanResult
	err     error
	done    bool
}

// NewScanModel creates the progress view of a run. ctx bounds the whole run.
func NewScanModel(ctx context.Context, runner *scanner.Runner, steps []string, target types.Target, opts scanner.Options) ScanModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.ColorAccent)

	return ScanModel{
		ctx:     ctx,
		spinner: sp,
		runner:  runner,
		steps:   steps,
		target:  target,
		opts:    opts,
	}
}

// Init starts the spinner and the first step.
func (m ScanModel) Init() tea.Cmd {
	if len(m.steps) == 0 {
		return complete(nil, nil)
	}
	return tea.Batch(m.spinner.Tick, m.runStep(0))
}

// Update records finished steps and launches the next one.
func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepDoneMsg:
		if msg.index != m.current || m.done {
			return m, nil
		}
		m.results = append(m.results, msg.result)
		if msg.err != nil {
			m.err = fmt.Errorf("%s: %w", m.steps[msg.index], msg.err)
			m.done = true
			return m, complete(m.results, m.err)
		}
		m.current++
		if m.current == len(m.steps) {
			m.done = true
			return m, complete(m.results, nil)
		}
		return m, m.runStep(m.current)

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders one line per step.
func (m ScanModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(Title))
	b.WriteString("\n\n")
	b.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("Target: %s", m.target.ResolveURL())))
	b.WriteString("\n")

	for i, name := range m.steps {
		switch {
		case i < len(m.results) && m.results[i].Error != "":
			b.WriteString(fmt.Sprintf("  %s %s  %s\n",
				styles.ErrorStyle.Render("✗"), name, styles.ErrorStyle.Render(m.results[i].Error)))
		case i < len(m.results):
			r := m.results[i]
			b.WriteString(fmt.Sprintf("  %s %s  %s\n",
				styles.DoneStyle.Render("✓"), name,
				styles.HelpStyle.Render(fmt.Sprintf("%d findings in %s", len(r.Findings), r.CompletedAt.Sub(r.StartedAt).Round(time.Second)))))
		case i == m.current && !m.done:
			b.WriteString(fmt.Sprintf("  %s %s\n", m.spinner.View(), styles.SelectedStyle.Render(name)))
		default:
			b.WriteString(fmt.Sprintf("  %s %s\n", styles.HelpStyle.Render("·"), styles.HelpStyle.Render(name)))
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("ctrl+c abort"))

	return b.String()
}

// Results returns the results of the steps that finished so far.
func (m ScanModel) Results() []types.ScanResult {
	return m.results
}

// Context returns the context bounding the run.
func (m ScanModel) Context() context.Context {
	return m.ctx
}

func (m ScanModel) runStep(i int) tea.Cmd {
	ctx, runner, name, target, opts := m.ctx, m.runner, m.steps[i], m.target, m.opts
	return func() tea.Msg {
		started := time.Now()
		result, err := runner.RunOne(ctx, name, target, opts)
		if err != nil {
			return stepDoneMsg{index: i, err: err, result: types.ScanResult{
				ScannerName: name,
				Target:      target,
				StartedAt:   started,
				CompletedAt: time.Now(),
				Error:       err.Error(),
			}}
		}
		if result == nil {
			result = &types.ScanResult{ScannerName: name, Target: target, StartedAt: started, CompletedAt: time.Now()}
		}
		return stepDoneMsg{index: i, result: *result}
	}
}

func complete(results []types.ScanResult, err error) tea.Cmd {
	return func() tea.Msg {
		return ScanCompleteMsg{Results: results, Err: err}
	}
}
