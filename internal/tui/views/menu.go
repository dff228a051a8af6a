package views

import (
	"fmt"
	"strings"

	"github.com/buemura/zapx/internal/tui/styles"
	tea "github.com/charmbracelet/bubbletea"
)

// StepItem is one pipeline step offered in the menu.
type StepItem struct {
	Name        string
	Description string
	Checked     bool
}

// MenuModel is the step checklist. Steps always run in menu order.
type MenuModel struct {
	items  []StepItem
	cursor int
	target string
	err    string
}

// NewMenuModel creates a checklist with the given steps.
func NewMenuModel(items []StepItem) MenuModel {
	return MenuModel{items: append([]StepItem(nil), items...)}
}

// SetTarget sets the target shown above the checklist.
func (m *MenuModel) SetTarget(target string) {
	m.target = target
}

// Check ticks exactly the named steps.
func (m *MenuModel) Check(names []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for i := range m.items {
		m.items[i].Checked = want[m.items[i].Name]
	}
}

// Init returns nil (no initial command).
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles navigation and toggling.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		m.err = ""
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case " ", "x":
			if len(m.items) > 0 {
				m.items[m.cursor].Checked = !m.items[m.cursor].Checked
			}
		case "enter":
			if len(m.Selected()) == 0 {
				m.err = "select at least one step"
			}
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the checklist.
func (m MenuModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(Title))
	b.WriteString("\n\n")
	b.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("Steps to run against %s:", m.target)))
	b.WriteString("\n")

	for i, item := range m.items {
		cursor := "  "
		nameStyle := styles.HelpStyle
		if i == m.cursor {
			cursor = styles.CursorStyle.Render("> ")
			nameStyle = styles.SelectedStyle
		}
		box := "[ ]"
		if item.Checked {
			box = "[x]"
		}

		b.WriteString(fmt.Sprintf("%s%s %s  %s\n",
			cursor,
			box,
			nameStyle.Render(fmt.Sprintf("%-9s", item.Name)),
			styles.HelpStyle.Render(item.Description),
		))
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ navigate • space toggle • enter run • esc back • q quit"))

	return b.String()
}

// Selected returns the names of the checked steps in menu order.
func (m MenuModel) Selected() []string {
	var names []string
	for _, item := range m.items {
		if item.Checked {
			names = append(names, item.Name)
		}
	}
	return names
}

// Cursor returns the current cursor position.
func (m MenuModel) Cursor() int {
	return m.cursor
}

// Items returns the menu items.
func (m MenuModel) Items() []StepItem {
	return m.items
}
