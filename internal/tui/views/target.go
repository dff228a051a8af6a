package views

import (
	"fmt"
	"strings"

	"github.com/buemura/zapx/internal/tui/styles"
	"github.com/buemura/zapx/pkg/types"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Title heads every view.
const Title = "zapx: interactive mode"

// TargetModel is the view model for the target URL input.
type TargetModel struct {
	textInput textinput.Model
	zapURL    string
	err       string
}

// NewTargetModel creates a target input view. zapURL is shown so the user
// knows which engine the run goes to.
func NewTargetModel(zapURL string) TargetModel {
	ti := textinput.New()
	ti.Placeholder = "e.g. http://juice-shop:3000/"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 60
	ti.PromptStyle = styles.CursorStyle
	ti.TextStyle = styles.SelectedStyle

	return TargetModel{textInput: ti, zapURL: zapURL}
}

// SetValue pre-fills the input, e.g. with the configured default target.
func (m *TargetModel) SetValue(v string) {
	m.textInput.SetValue(v)
	m.textInput.CursorEnd()
}

// Init returns the text input blink command.
func (m TargetModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input events. Enter only validates; the parent decides
// whether to move on.
func (m TargetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		if _, err := m.ValidatedTarget(); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.err = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.err = ""
	return m, cmd
}

// View renders the target input form.
func (m TargetModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(Title))
	b.WriteString("\n\n")
	if m.zapURL != "" {
		b.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("ZAP: %s", m.zapURL)))
		b.WriteString("\n")
	}
	b.WriteString("Enter the target URL:\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.err))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("enter continue • ctrl+c quit"))

	return b.String()
}

// ValidatedTarget parses and returns the target, or an error if invalid.
func (m TargetModel) ValidatedTarget() (types.Target, error) {
	value := strings.TrimSpace(m.textInput.Value())
	if value == "" {
		return types.Target{}, fmt.Errorf("target is required")
	}
	return types.ParseTarget(value)
}
