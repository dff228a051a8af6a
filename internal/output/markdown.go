package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/buemura/zapx/pkg/types"
)

// MarkdownFormatter renders results as Markdown tables suitable for
// pasting into issues or pull-request descriptions.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, results []types.ScanResult) error {
	for i, result := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}

		if result.Error != "" {
			fmt.Fprintf(w, "## %s: error\n\n> %s\n", result.ScannerName, result.Error)
			continue
		}

		fmt.Fprintf(w, "## %s: %s\n\n", result.ScannerName, targetLabel(result.Target))

		if len(result.Findings) == 0 {
			fmt.Fprintln(w, "_No findings._")
			continue
		}

		sortFindings(result.Findings)

		fmt.Fprintln(w, "| Severity | Title | Evidence | Solution |")
		fmt.Fprintln(w, "|----------|-------|----------|----------|")

		for _, finding := range result.Findings {
			fmt.Fprintf(w, "| **%s** | %s | %s | %s |\n",
				finding.Severity,
				escapeMarkdown(finding.Title),
				escapeMarkdown(finding.Evidence),
				escapeMarkdown(finding.Remediation),
			)
		}

		fmt.Fprintf(w, "\n**Summary:** %s\n", summary(result.CountBySeverity()))
	}

	return nil
}

// escapeMarkdown keeps a value on one table row: pipes are escaped and
// newlines collapsed.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}
