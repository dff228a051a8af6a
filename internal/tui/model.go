package tui

import (
	"context"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/tui/views"
	"github.com/buemura/zapx/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// appState represents which view is currently active.
type appState int

const (
	stateTarget  appState = iota // Target URL input
	stateMenu                    // Step checklist
	stateScan                    // Run in progress
	stateResults                 // Findings browser
)

// Config wires the TUI to the engine.
type Config struct {
	ZAPURL        string
	DefaultTarget string
	// Plan returns the steps ticked by default for a target.
	Plan    func(types.Target) []string
	Options scanner.Options
	// MaxDuration bounds each run; 0 means no bound.
	MaxDuration time.Duration
	Log         logrus.FieldLogger
}

// Model is the root Bubble Tea model that manages view transitions.
type Model struct {
	state    appState
	ctx      context.Context
	cancel   context.CancelFunc
	registry *scanner.Registry
	runner   *scanner.Runner
	cfg      Config
	target   types.Target
	width    int
	height   int

	// Sub-models for each view.
	menu    views.MenuModel
	input   views.TargetModel
	scan    views.ScanModel
	results views.ResultsModel
}

// NewModel creates a root model. ctx bounds every run started from the UI.
func NewModel(ctx context.Context, reg *scanner.Registry, cfg Config) Model {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}

	steps := reg.All()
	items := make([]views.StepItem, len(steps))
	for i, s := range steps {
		items[i] = views.StepItem{
			Name:        s.Name(),
			Description: s.Description(),
		}
	}

	input := views.NewTargetModel(cfg.ZAPURL)
	input.SetValue(cfg.DefaultTarget)

	return Model{
		state:    stateTarget,
		ctx:      ctx,
		registry: reg,
		runner:   scanner.NewRunner(reg, cfg.Log),
		cfg:      cfg,
		menu:     views.NewMenuModel(items),
		input:    input,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return m.input.Init()
}

// Update handles messages and manages state transitions.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.stopRun()
			return m, tea.Quit
		case "esc":
			return m.handleBack()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	switch m.state {
	case stateTarget:
		return m.updateTarget(msg)
	case stateMenu:
		return m.updateMenu(msg)
	case stateScan:
		return m.updateScan(msg)
	case stateResults:
		return m.updateResults(msg)
	}

	return m, nil
}

// View renders the current view.
func (m Model) View() string {
	switch m.state {
	case stateTarget:
		return m.input.View()
	case stateMenu:
		return m.menu.View()
	case stateScan:
		return m.scan.View()
	case stateResults:
		return m.results.View()
	}
	return ""
}

// A run cannot be left with esc; it ends or is aborted with ctrl+c.
func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		m.state = stateTarget
		return m, m.input.Init()
	case stateResults:
		m.state = stateMenu
		return m, nil
	}
	return m, nil
}

func (m Model) updateTarget(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		target, err := m.input.ValidatedTarget()
		if err == nil {
			m.target = target
			m.menu.SetTarget(target.ResolveURL())
			if m.cfg.Plan != nil {
				m.menu.Check(m.cfg.Plan(target))
			} else {
				m.menu.Check(m.registry.Names())
			}
			m.state = stateMenu
			return m, nil
		}
	}

	updated, cmd := m.input.Update(msg)
	m.input = updated.(views.TargetModel)
	return m, cmd
}

func (m Model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		if steps := m.menu.Selected(); len(steps) > 0 {
			m.stopRun()
			var ctx context.Context
			if m.cfg.MaxDuration > 0 {
				ctx, m.cancel = context.WithTimeout(m.ctx, m.cfg.MaxDuration)
			} else {
				ctx, m.cancel = context.WithCancel(m.ctx)
			}

			m.cfg.Log.WithFields(logrus.Fields{"target": m.target.ResolveURL(), "steps": steps}).Info("Interactive run started")
			m.scan = views.NewScanModel(ctx, m.runner, steps, m.target, m.cfg.Options)
			m.state = stateScan
			return m, m.scan.Init()
		}
	}

	updated, cmd := m.menu.Update(msg)
	m.menu = updated.(views.MenuModel)
	return m, cmd
}

func (m Model) updateScan(msg tea.Msg) (tea.Model, tea.Cmd) {
	if done, ok := msg.(views.ScanCompleteMsg); ok {
		m.stopRun()
		if done.Err != nil {
			m.cfg.Log.WithError(done.Err).Warn("Interactive run stopped")
		}
		m.results = views.NewResultsModel(done.Results, done.Err)
		m.state = stateResults
		return m, nil
	}

	updated, cmd := m.scan.Update(msg)
	m.scan = updated.(views.ScanModel)
	return m, cmd
}

func (m Model) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.results.Update(msg)
	m.results = updated.(views.ResultsModel)
	return m, cmd
}

func (m *Model) stopRun() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}
