package views

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/buemura/zapx/internal/output"
	"github.com/buemura/zapx/internal/tui/styles"
	"github.com/buemura/zapx/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
)

// ExportPath is where "e" writes the JSON report.
var ExportPath = "zapx-results.json"

// ResultsModel is the view model for browsing the findings of a run.
type ResultsModel struct {
	results   []types.ScanResult
	runErr    error
	rows      []findingRow
	cursor    int
	offset    int
	maxRows   int
	exported  bool
	exportErr string
}

type findingRow struct {
	finding     types.Finding
	scannerName string
}

// NewResultsModel creates a results view. runErr is the error the run stopped
// with, if any; results are then partial.
func NewResultsModel(results []types.ScanResult, runErr error) ResultsModel {
	m := ResultsModel{
		results: results,
		runErr:  runErr,
		maxRows: 15,
	}
	for _, r := range results {
		for _, f := range r.Findings {
			m.rows = append(m.rows, findingRow{finding: f, scannerName: r.ScannerName})
		}
	}
	// Most severe first; crawled URLs (INFO) sink to the bottom.
	sort.SliceStable(m.rows, func(i, j int) bool {
		return types.SeverityRank(m.rows[i].finding.Severity) < types.SeverityRank(m.rows[j].finding.Severity)
	})
	return m
}

// Init returns nil (no initial command).
func (m ResultsModel) Init() tea.Cmd {
	return nil
}

// Update handles key events for scrolling and export.
func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.maxRows {
					m.offset = m.cursor - m.maxRows + 1
				}
			}
		case "e":
			m.export()
		case "q":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the findings table and the detail of the selected finding.
func (m ResultsModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("zapx: results"))
	b.WriteString("\n\n")

	if m.runErr != nil {
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("Run stopped: %v", m.runErr)))
		b.WriteString("\n\n")
	}

	if len(m.rows) == 0 {
		b.WriteString("No findings.\n")
	} else {
		b.WriteString(m.summaryLine())
		b.WriteString("\n\n")

		header := fmt.Sprintf("  %-10s %-60s %s", "SEVERITY", "TITLE", "STEP")
		b.WriteString(styles.HeaderStyle.Render(header))
		b.WriteString("\n")

		end := m.offset + m.maxRows
		if end > len(m.rows) {
			end = len(m.rows)
		}

		for i := m.offset; i < end; i++ {
			f := m.rows[i]
			cursor := "  "
			if i == m.cursor {
				cursor = styles.CursorStyle.Render("> ")
			}

			severity := styles.SeverityStyle(f.finding.Severity).Render(fmt.Sprintf("%-10s", f.finding.Severity))
			title := truncate(f.finding.Title, 60)
			step := styles.HelpStyle.Render(f.scannerName)

			b.WriteString(fmt.Sprintf("%s%s %-60s %s\n", cursor, severity, title, step))
		}

		if len(m.rows) > m.maxRows {
			b.WriteString(fmt.Sprintf("\n  Showing %d-%d of %d findings\n", m.offset+1, end, len(m.rows)))
		}

		b.WriteString("\n")
		b.WriteString(m.detailView(m.rows[m.cursor]))
	}

	if m.exported {
		b.WriteString("\n")
		b.WriteString(styles.SelectedStyle.Render("Results exported to " + ExportPath))
	}
	if m.exportErr != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.exportErr))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ scroll • e export JSON • esc steps • q quit"))

	return b.String()
}

func (m ResultsModel) summaryLine() string {
	counts := map[types.Severity]int{}
	for _, f := range m.rows {
		counts[f.finding.Severity]++
	}

	var parts []string
	for _, sev := range []types.Severity{
		types.SeverityCritical, types.SeverityHigh,
		types.SeverityMedium, types.SeverityLow, types.SeverityInfo,
	} {
		if c := counts[sev]; c > 0 {
			parts = append(parts, styles.SeverityStyle(sev).Render(fmt.Sprintf("%s: %d", sev, c)))
		}
	}

	return fmt.Sprintf("Total: %d findings  [%s]", len(m.rows), strings.Join(parts, "  "))
}

func (m ResultsModel) detailView(row findingRow) string {
	var b strings.Builder
	b.WriteString(styles.BorderStyle.Render(
		fmt.Sprintf("Title: %s\nSeverity: %s\nDescription: %s",
			row.finding.Title,
			row.finding.Severity,
			row.finding.Description,
		),
	))

	if row.finding.Evidence != "" {
		b.WriteString(fmt.Sprintf("\n  Evidence: %s", row.finding.Evidence))
	}
	if row.finding.Remediation != "" {
		b.WriteString(fmt.Sprintf("\n  Solution: %s", row.finding.Remediation))
	}

	return b.String()
}

func (m *ResultsModel) export() {
	f, err := os.Create(ExportPath)
	if err != nil {
		m.exportErr = fmt.Sprintf("export failed: %v", err)
		return
	}
	defer f.Close()

	if err := (&output.JSONFormatter{}).Format(f, m.results); err != nil {
		m.exportErr = fmt.Sprintf("export failed: %v", err)
		return
	}

	m.exported = true
	m.exportErr = ""
}

// Cursor returns the index of the selected finding.
func (m ResultsModel) Cursor() int {
	return m.cursor
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
