// Package output renders the results of a run.
package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/buemura/zapx/pkg/types"
)

// Formatter renders scan results to a writer.
type Formatter interface {
	Format(w io.Writer, results []types.ScanResult) error
}

// Formats lists the names accepted by GetFormatter.
var Formats = []string{"table", "json", "yaml", "markdown", "html"}

// GetFormatter returns the appropriate formatter for the given format string.
func GetFormatter(format string) (Formatter, error) {
	switch format {
	case "table":
		return &TableFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: table, json, yaml, markdown, html)", format)
	}
}

// sortFindings orders findings most severe first, keeping the engine's order
// within a severity.
func sortFindings(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return types.SeverityRank(findings[i].Severity) < types.SeverityRank(findings[j].Severity)
	})
}

// targetLabel names the target the way it was handed to ZAP.
func targetLabel(t types.Target) string {
	if u := t.ResolveURL(); u != "" {
		return u
	}
	return t.Host
}

func summary(counts map[types.Severity]int) string {
	total := 0
	for _, c := range counts {
		total += c
	}
	return fmt.Sprintf("%d findings (%d high, %d medium, %d low, %d info)",
		total,
		counts[types.SeverityHigh],
		counts[types.SeverityMedium],
		counts[types.SeverityLow],
		counts[types.SeverityInfo],
	)
}
