package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/buemura/zapx/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResults() []types.ScanResult {
	target := types.Target{Host: "juice-shop", URL: "http://juice-shop:3000/", Scheme: "http", Ports: []int{3000}}
	return []types.ScanResult{
		{
			ScannerName: "alerts",
			Target:      target,
			StartedAt:   time.Now(),
			CompletedAt: time.Now(),
			Findings: []types.Finding{
				{Title: "Modern Web Application", Severity: types.SeverityInfo, Evidence: "http://juice-shop:3000/"},
				{
					Title:       "SQL Injection",
					Severity:    types.SeverityHigh,
					Description: "SQL injection may be possible.",
					Evidence:    "http://juice-shop:3000/rest/products/search [q]",
					Remediation: "Use prepared statements.",
					Metadata:    map[string]string{"cwe": "89"},
				},
			},
		},
	}
}

func TestGetFormatter(t *testing.T) {
	for format, want := range map[string]Formatter{
		"table":    &TableFormatter{},
		"json":     &JSONFormatter{},
		"yaml":     &YAMLFormatter{},
		"markdown": &MarkdownFormatter{},
		"html":     &HTMLFormatter{},
	} {
		f, err := GetFormatter(format)
		require.NoError(t, err, format)
		assert.IsType(t, want, f)
	}
	assert.Len(t, Formats, 5)
}

func TestGetFormatter_Unknown(t *testing.T) {
	_, err := GetFormatter("xml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, sampleResults()))

	output := buf.String()
	assert.Contains(t, output, "alerts")
	assert.Contains(t, output, "http://juice-shop:3000/")
	assert.Contains(t, output, "SQL Injection")
	assert.Contains(t, output, "2 findings (1 high, 0 medium, 0 low, 1 info)")
}

func TestTableFormatter_SortsBySeverity(t *testing.T) {
	results := sampleResults()
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, results))

	out := buf.String()
	assert.Less(t, bytes.Index([]byte(out), []byte("SQL Injection")), bytes.Index([]byte(out), []byte("Modern Web Application")))
}

func TestTableFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	results := []types.ScanResult{{ScannerName: "spider", Error: "no URLs found"}}
	require.NoError(t, (&TableFormatter{}).Format(&buf, results))
	assert.Contains(t, buf.String(), "no URLs found")
}

func TestTableFormatter_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	results := []types.ScanResult{{ScannerName: "ascan", Target: types.Target{Host: "app"}}}
	require.NoError(t, (&TableFormatter{}).Format(&buf, results))
	assert.Contains(t, buf.String(), "No findings")
	assert.Contains(t, buf.String(), "http://app/")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResults()))

	var decoded []types.ScanResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "alerts", decoded[0].ScannerName)
	assert.Len(t, decoded[0].Findings, 2)
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	results := append(sampleResults(), types.ScanResult{ScannerName: "ascan", Error: "boom"})
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, results))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "alerts", decoded[0]["step"])
	assert.Equal(t, "http://juice-shop:3000/", decoded[0]["target"])
	findings := decoded[0]["findings"].([]any)
	require.Len(t, findings, 2)
	assert.Equal(t, "boom", decoded[1]["error"])
	assert.Contains(t, buf.String(), "cwe: \"89\"")
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownFormatter{}).Format(&buf, sampleResults()))

	output := buf.String()
	assert.Contains(t, output, "## alerts: http://juice-shop:3000/")
	assert.Contains(t, output, "| **HIGH** | SQL Injection |")
	assert.Contains(t, output, "Use prepared statements.")
	assert.Contains(t, output, "**Summary:** 2 findings")
}

func TestMarkdownFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	results := []types.ScanResult{{ScannerName: "spider", Error: "connection refused"}}
	require.NoError(t, (&MarkdownFormatter{}).Format(&buf, results))
	assert.Contains(t, buf.String(), "## spider: error")
	assert.Contains(t, buf.String(), "> connection refused")
}

func TestMarkdownFormatter_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	results := []types.ScanResult{{ScannerName: "contexts", Target: types.Target{Host: "app"}}}
	require.NoError(t, (&MarkdownFormatter{}).Format(&buf, results))
	assert.Contains(t, buf.String(), "_No findings._")
}

func TestMarkdownFormatter_EscapesTableBreakers(t *testing.T) {
	var buf bytes.Buffer
	results := []types.ScanResult{{
		ScannerName: "alerts",
		Target:      types.Target{Host: "app"},
		Findings: []types.Finding{
			{Title: "A|B", Severity: types.SeverityInfo, Evidence: "line one\nline two"},
		},
	}}
	require.NoError(t, (&MarkdownFormatter{}).Format(&buf, results))
	output := buf.String()
	assert.Contains(t, output, `A\|B`)
	assert.Contains(t, output, "line one line two")
}

func TestHTMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &HTMLFormatter{ZAPURL: "http://zap:8080"}
	require.NoError(t, f.Format(&buf, sampleResults()))

	output := buf.String()
	assert.Contains(t, output, "<!DOCTYPE html>")
	assert.Contains(t, output, "zapx Scan Report")
	assert.Contains(t, output, "Engine: http://zap:8080")
	assert.Contains(t, output, "http://juice-shop:3000/")
	assert.Contains(t, output, "SQL Injection")
	assert.Contains(t, output, `class="badge high"`)
	assert.Contains(t, output, `class="badge info"`)
}

func TestHTMLFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	results := []types.ScanResult{{ScannerName: "spider", Error: "connection refused"}}
	require.NoError(t, (&HTMLFormatter{}).Format(&buf, results))
	output := buf.String()
	assert.Contains(t, output, "Error")
	assert.Contains(t, output, "connection refused")
	assert.NotContains(t, output, "Engine:")
}

func TestHTMLFormatter_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	results := []types.ScanResult{{ScannerName: "ascan", Target: types.Target{Host: "app"}}}
	require.NoError(t, (&HTMLFormatter{}).Format(&buf, results))
	assert.Contains(t, buf.String(), "No findings")
}

func TestHTMLFormatter_ExpandableDetails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLFormatter{}).Format(&buf, sampleResults()))
	output := buf.String()
	assert.Contains(t, output, "<details>")
	assert.Contains(t, output, "Use prepared statements.")
	assert.Contains(t, output, "<strong>cwe:</strong> 89")
}

func TestHTMLFormatter_CrawlStepListsURLs(t *testing.T) {
	var buf bytes.Buffer
	results := []types.ScanResult{{
		ScannerName: "spider",
		Target:      types.Target{URL: "http://juice-shop:3000/"},
		StartedAt:   time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 1, 1, 10, 1, 30, 0, time.UTC),
		Findings: []types.Finding{
			{Title: "URL discovered", Severity: types.SeverityInfo, Evidence: "http://juice-shop:3000/"},
			{Title: "URL discovered", Severity: types.SeverityInfo, Evidence: "http://juice-shop:3000/login"},
		},
	}}
	require.NoError(t, (&HTMLFormatter{}).Format(&buf, results))
	output := buf.String()
	assert.Contains(t, output, "2 URLs discovered")
	assert.Contains(t, output, "<li><code>http://juice-shop:3000/login</code></li>")
	assert.Contains(t, output, "1m30s")
	assert.NotContains(t, output, `class="badge info"`, "crawled URLs are not alerts")
}
