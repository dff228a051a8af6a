package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/buemura/zapx/pkg/types"
)

// HTMLFormatter renders a self-contained HTML report: a run overview, then
// one section per step. Crawl steps list their URLs; the other steps get an
// alert table with expandable details. ZAPURL, when set, names the engine
// in the report header.
type HTMLFormatter struct {
	ZAPURL string
}

func (f *HTMLFormatter) Format(w io.Writer, results []types.ScanResult) error {
	for i := range results {
		sortFindings(results[i].Findings)
	}

	data := reportData{ZAPURL: f.ZAPURL, Generated: time.Now().UTC().Format(time.RFC1123)}
	for _, r := range results {
		data.Steps = append(data.Steps, reportStep{ScanResult: r, Crawl: crawlSteps[r.ScannerName]})
		for _, finding := range r.Findings {
			data.Risk[types.SeverityRank(finding.Severity)]++
		}
	}
	return reportTpl.Execute(w, data)
}

// crawlSteps report discovered URLs rather than alerts.
var crawlSteps = map[string]bool{"spider": true, "ajax": true}

type reportData struct {
	ZAPURL    string
	Generated string
	Steps     []reportStep
	// Risk counts findings per severity rank, CRITICAL first.
	Risk [6]int
}

type reportStep struct {
	types.ScanResult
	Crawl bool
}

// Duration is the wall time of the step, empty when unknown.
func (s reportStep) Duration() string {
	if s.StartedAt.IsZero() || s.CompletedAt.Before(s.StartedAt) {
		return ""
	}
	return s.CompletedAt.Sub(s.StartedAt).Round(time.Second).String()
}

// severityClass maps a Severity to a CSS class name.
func severityClass(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return "critical"
	case types.SeverityHigh:
		return "high"
	case types.SeverityMedium:
		return "medium"
	case types.SeverityLow:
		return "low"
	default:
		return "info"
	}
}

var reportTpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"severityClass": severityClass,
	"targetLabel":   targetLabel,
}).Parse(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>zapx Scan Report</title>
<style>%s</style>
</head>
<body>
<header>
  <h1>zapx Scan Report</h1>
  <p>{{with .ZAPURL}}Engine: {{.}} &middot; {{end}}Generated {{.Generated}}</p>
</header>
<main>
  <table class="risk">
    <tr>
      <th>High</th><th>Medium</th><th>Low</th><th>Informational</th>
    </tr>
    <tr>
      <td class="high">{{index .Risk 1}}</td><td class="medium">{{index .Risk 2}}</td>
      <td class="low">{{index .Risk 3}}</td><td class="info">{{index .Risk 4}}</td>
    </tr>
  </table>

  <table class="steps">
    <tr><th>Step</th><th>Target</th><th>Result</th><th>Took</th></tr>
    {{range .Steps}}
    <tr>
      <td><a href="#step-{{.ScannerName}}">{{.ScannerName}}</a></td>
      <td>{{targetLabel .Target}}</td>
      <td>{{if .Error}}<span class="failed">Error</span>{{else}}{{len .Findings}} {{if .Crawl}}URLs{{else}}findings{{end}}{{end}}</td>
      <td>{{.Duration}}</td>
    </tr>
    {{end}}
  </table>

  {{range .Steps}}
  <section id="step-{{.ScannerName}}">
    <h2>{{.ScannerName}}</h2>
    {{if .Error}}
      <p class="failed">{{.Error}}</p>
    {{else if not .Findings}}
      <p class="muted">No findings.</p>
    {{else if .Crawl}}
      <details>
        <summary>{{len .Findings}} URLs discovered</summary>
        <ul class="urls">{{range .Findings}}<li><code>{{.Evidence}}</code></li>{{end}}</ul>
      </details>
    {{else}}
      <table>
        <tr><th>Risk</th><th>Alert</th><th>Where</th></tr>
        {{range .Findings}}
        <tr>
          <td><span class="badge {{severityClass .Severity}}">{{.Severity}}</span></td>
          <td>{{.Title}}
            {{if or .Description .Remediation .Metadata}}
            <details>
              <summary>Details</summary>
              {{if .Description}}<p>{{.Description}}</p>{{end}}
              {{if .Remediation}}<p><strong>Solution:</strong> {{.Remediation}}</p>{{end}}
              {{range $k, $v := .Metadata}}<p><strong>{{$k}}:</strong> {{$v}}</p>{{end}}
            </details>
            {{end}}
          </td>
          <td><code>{{.Evidence}}</code></td>
        </tr>
        {{end}}
      </table>
    {{end}}
  </section>
  {{end}}
</main>
</body>
</html>`, reportCSS)))

const reportCSS = `
body{margin:0;font:15px/1.5 system-ui,sans-serif;color:#222;background:#fff}
header{background:#00344d;color:#fff;padding:1.2rem 2rem}
header h1{margin:0;font-size:1.5rem}
header p{margin:.2rem 0 0;opacity:.8;font-size:.9rem}
main{padding:1.5rem 2rem;max-width:1100px}
table{border-collapse:collapse;width:100%;margin:0 0 1.5rem}
th,td{border:1px solid #d6dde3;padding:.4rem .6rem;text-align:left;vertical-align:top}
th{background:#eef3f6}
table.risk{width:auto}
table.risk td{font-size:1.4rem;font-weight:700;text-align:center;min-width:7rem}
td.high{color:#c0392b}td.medium{color:#d68910}td.low{color:#b7950b}td.info{color:#2e86c1}
h2{font-size:1.15rem;border-left:4px solid #00a3e0;padding-left:.5rem;margin:2rem 0 .8rem}
.badge{display:inline-block;padding:0 .5rem;border-radius:3px;color:#fff;font-size:.75rem;font-weight:700}
.badge.critical{background:#7b241c}.badge.high{background:#c0392b}.badge.medium{background:#d68910}
.badge.low{background:#b7950b}.badge.info{background:#2e86c1}
.failed{color:#c0392b;font-weight:600}
.muted{color:#777}
summary{cursor:pointer;color:#00699b}
ul.urls{margin:.5rem 0;padding-left:1.2rem;columns:2}
code{font-size:.85em;word-break:break-all}
`
