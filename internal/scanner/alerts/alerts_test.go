package alerts

import (
	"context"
	"testing"

	"github.com/buemura/zapx/internal/scanner/scannertest"
	"github.com/buemura/zapx/internal/zap"
	"github.com/buemura/zapx/internal/zap/zaptest"
	"github.com/buemura/zapx/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity(t *testing.T) {
	assert.Equal(t, types.SeverityHigh, Severity("High"))
	assert.Equal(t, types.SeverityMedium, Severity("Medium"))
	assert.Equal(t, types.SeverityLow, Severity("low"))
	assert.Equal(t, types.SeverityInfo, Severity("Informational"))
	assert.Equal(t, types.SeverityInfo, Severity(""))
}

func TestFinding(t *testing.T) {
	f := Finding(zap.Alert{
		Alert:       "SQL Injection",
		Risk:        "High",
		Confidence:  "Medium",
		URL:         "http://app/rest/products/search?q=1",
		Param:       "q",
		Evidence:    "SQLITE_ERROR",
		Description: "SQL injection may be possible.",
		Solution:    "Use prepared statements.",
		PluginID:    "40018",
		CWEID:       "89",
		WASCID:      "19",
		Attack:      "'",
	})
	assert.Equal(t, "SQL Injection", f.Title)
	assert.Equal(t, types.SeverityHigh, f.Severity)
	assert.Equal(t, "http://app/rest/products/search?q=1 [q]: SQLITE_ERROR", f.Evidence)
	assert.Equal(t, "Use prepared statements.", f.Remediation)
	assert.Equal(t, "89", f.Metadata["cwe"])
	assert.Equal(t, "40018", f.Metadata["plugin_id"])
	assert.NotContains(t, f.Metadata, "method")

	f = Finding(zap.Alert{Name: "Cookie without SameSite", Risk: "Low", CWEID: "-1", URL: "http://app/"})
	assert.Equal(t, "Cookie without SameSite", f.Title)
	assert.Equal(t, "http://app/", f.Evidence)
	assert.NotContains(t, f.Metadata, "cwe")
}

func TestReporter_Run(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.Alerts = []map[string]string{
		{"alert": "Server Leaks Version", "risk": "Low", "url": "http://app/"},
		{"alert": "Cross Site Scripting (Reflected)", "risk": "High", "url": "http://app/search"},
		{"alert": "Modern Web Application", "risk": "Informational", "url": "http://app/"},
	}

	log, _ := scannertest.NewLogger()
	r := New(scannertest.NewEngine(t, srv), log)
	result, err := r.Run(context.Background(), types.Target{URL: "http://app/"}, scannertest.FastOptions())
	require.NoError(t, err)

	assert.Equal(t, "alerts", result.ScannerName)
	require.Len(t, result.Findings, 3)
	assert.Equal(t, types.SeverityHigh, result.Findings[0].Severity)
	assert.Equal(t, types.SeverityLow, result.Findings[1].Severity)
	assert.Equal(t, types.SeverityInfo, result.Findings[2].Severity)
	assert.Equal(t, "http://app/", srv.CallsTo("core/view/alerts")[0].Params.Get("baseurl"))
}

func TestReporter_RunNoAlerts(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	log, _ := scannertest.NewLogger()
	result, err := New(scannertest.NewEngine(t, srv), log).Run(context.Background(), types.Target{Host: "app"}, scannertest.FastOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, "http://app/", srv.CallsTo("core/view/alerts")[0].Params.Get("baseurl"))
}
