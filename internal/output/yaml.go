package output

import (
	"io"
	"time"

	"github.com/buemura/zapx/pkg/types"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders results as a YAML document, the same shape as the
// JSON report.
type YAMLFormatter struct{}

type yamlFinding struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description,omitempty"`
	Severity    types.Severity    `yaml:"severity"`
	Evidence    string            `yaml:"evidence,omitempty"`
	Remediation string            `yaml:"remediation,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
}

type yamlResult struct {
	Step        string        `yaml:"step"`
	Target      string        `yaml:"target"`
	StartedAt   time.Time     `yaml:"started_at"`
	CompletedAt time.Time     `yaml:"completed_at,omitempty"`
	Findings    []yamlFinding `yaml:"findings"`
	Error       string        `yaml:"error,omitempty"`
}

func (f *YAMLFormatter) Format(w io.Writer, results []types.ScanResult) error {
	doc := make([]yamlResult, 0, len(results))
	for _, r := range results {
		out := yamlResult{
			Step:        r.ScannerName,
			Target:      targetLabel(r.Target),
			StartedAt:   r.StartedAt,
			CompletedAt: r.CompletedAt,
			Findings:    make([]yamlFinding, 0, len(r.Findings)),
			Error:       r.Error,
		}
		for _, f := range r.Findings {
			out.Findings = append(out.Findings, yamlFinding(f))
		}
		doc = append(doc, out)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
