package output

import (
	"fmt"
	"io"

	"github.com/buemura/zapx/pkg/types"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// TableFormatter renders results as a colored terminal table.
type TableFormatter struct{}

func (f *TableFormatter) Format(w io.Writer, results []types.ScanResult) error {
	for _, result := range results {
		if result.Error != "" {
			fmt.Fprintf(w, "\n[%s] %s\n", result.ScannerName, color.RedString("Error: %s", result.Error))
			continue
		}

		fmt.Fprintf(w, "\n[%s] %s: %d findings\n", result.ScannerName, targetLabel(result.Target), len(result.Findings))

		if len(result.Findings) == 0 {
			fmt.Fprintln(w, "  No findings.")
			continue
		}

		sortFindings(result.Findings)

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Severity", "Title", "Evidence"})
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		table.SetColumnSeparator("│")

		for _, finding := range result.Findings {
			table.Append([]string{colorSeverity(finding.Severity), finding.Title, finding.Evidence})
		}

		table.Render()

		fmt.Fprintf(w, "  Summary: %s\n", summary(result.CountBySeverity()))
	}

	return nil
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return color.New(color.FgRed, color.Bold).Sprint("CRITICAL")
	case types.SeverityHigh:
		return color.RedString("HIGH")
	case types.SeverityMedium:
		return color.YellowString("MEDIUM")
	case types.SeverityLow:
		return color.CyanString("LOW")
	case types.SeverityInfo:
		return color.WhiteString("INFO")
	default:
		return string(s)
	}
}
