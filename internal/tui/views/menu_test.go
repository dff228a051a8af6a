package views

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func pipelineItems() []StepItem {
	return []StepItem{
		{Name: "contexts", Description: "Create contexts and users"},
		{Name: "spider", Description: "Crawl with the HTTP spider"},
		{Name: "ajax", Description: "Crawl with the AJAX spider"},
		{Name: "ascan", Description: "Run the active scanner"},
		{Name: "alerts", Description: "Report the alerts"},
	}
}

func press(t *testing.T, m MenuModel, keys ...string) MenuModel {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		m = updated.(MenuModel)
	}
	return m
}

func TestNewMenuModel(t *testing.T) {
	m := NewMenuModel(pipelineItems())

	assert.Equal(t, 0, m.Cursor())
	assert.Len(t, m.Items(), 5)
	assert.Empty(t, m.Selected())
}

func TestMenuModelNavigate(t *testing.T) {
	m := NewMenuModel(pipelineItems())

	m = press(t, m, "j", "j")
	assert.Equal(t, 2, m.Cursor())

	m = press(t, m, "j", "j", "j")
	assert.Equal(t, 4, m.Cursor(), "cursor stops at the last step")

	m = press(t, m, "k")
	assert.Equal(t, 3, m.Cursor())

	m = press(t, m, "k", "k", "k", "k")
	assert.Equal(t, 0, m.Cursor(), "cursor stops at the first step")
}

func TestMenuModelCheckAndToggle(t *testing.T) {
	m := NewMenuModel(pipelineItems())
	m.Check([]string{"contexts", "spider", "ascan", "alerts"})
	assert.Equal(t, []string{"contexts", "spider", "ascan", "alerts"}, m.Selected())

	// Tick ajax, untick ascan.
	m = press(t, m, "j", "j", " ", "j", "x")
	assert.Equal(t, []string{"contexts", "spider", "ajax", "alerts"}, m.Selected())
}

func TestMenuModelSelectedKeepsPipelineOrder(t *testing.T) {
	m := NewMenuModel(pipelineItems())
	m.Check([]string{"alerts", "contexts"})
	assert.Equal(t, []string{"contexts", "alerts"}, m.Selected())
}

func TestMenuModelEnterWithoutSteps(t *testing.T) {
	m := NewMenuModel(pipelineItems())
	m = press(t, m, "enter")
	assert.Contains(t, m.View(), "select at least one step")

	m = press(t, m, "j")
	assert.NotContains(t, m.View(), "select at least one step")
}

func TestMenuModelView(t *testing.T) {
	m := NewMenuModel(pipelineItems())
	m.SetTarget("http://juice-shop:3000/")
	m.Check([]string{"spider"})
	view := m.View()

	assert.Contains(t, view, "zapx")
	assert.Contains(t, view, "http://juice-shop:3000/")
	assert.Contains(t, view, "[x]")
	assert.Contains(t, view, "Crawl with the AJAX spider")
	assert.Contains(t, view, "space toggle")
}

func TestMenuModelQuit(t *testing.T) {
	m := NewMenuModel(pipelineItems())
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestMenuModelEmpty(t *testing.T) {
	m := NewMenuModel(nil)
	m = press(t, m, " ", "j")
	assert.Empty(t, m.Selected())
	assert.Equal(t, 0, m.Cursor())
}
