package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/scanner/alerts"
	"github.com/buemura/zapx/internal/scanner/scannertest"
	"github.com/buemura/zapx/internal/scanner/spider"
	"github.com/buemura/zapx/internal/web/jobs"
	"github.com/buemura/zapx/internal/zap/zaptest"
	"github.com/buemura/zapx/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newIntegrationServer wires the real spider and alert steps to a fake ZAP.
func newIntegrationServer(t *testing.T) (*Server, *httptest.Server, *zaptest.Server) {
	t.Helper()
	zap := zaptest.NewServer()
	t.Cleanup(zap.Close)
	zap.URLs = []string{"http://juice-shop:3000/", "http://juice-shop:3000/login"}
	zap.Alerts = []map[string]string{
		{"alert": "Content Security Policy (CSP) Header Not Set", "risk": "Medium", "url": "http://juice-shop:3000/"},
	}

	engine := scannertest.NewEngine(t, zap)
	log, _ := scannertest.NewLogger()

	reg := scanner.NewRegistry()
	reg.Register(spider.NewHTTP(engine, nil, log))
	reg.Register(alerts.New(engine, log))

	srv := NewServer(reg, Config{
		Plan:    func(types.Target, bool) []string { return []string{"spider", "alerts"} },
		Options: scannertest.FastOptions(),
		ZAPURL:  zap.URL,
		Log:     log,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts, zap
}

func submit(t *testing.T, ts *httptest.Server, body string) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/scans", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created["id"].(string)
}

func waitForFinish(t *testing.T, mgr *jobs.Manager, jobID string) *jobs.Job {
	t.Helper()
	var job *jobs.Job
	require.Eventually(t, func() bool {
		j, err := mgr.Get(jobID)
		if err != nil {
			return false
		}
		job = j
		return j.Status.Finished()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestIntegration_SubmitScanPollAndVerifyResults(t *testing.T) {
	srv, ts, zap := newIntegrationServer(t)

	jobID := submit(t, ts, `{"target": "http://juice-shop:3000/"}`)
	job := waitForFinish(t, srv.Manager(), jobID)
	require.Equal(t, jobs.StatusCompleted, job.Status, job.Error)

	resp, err := http.Get(ts.URL + "/api/v1/scans/" + jobID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got jobs.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, jobs.StatusCompleted, got.Status)
	require.Len(t, got.Results, 2)
	assert.Len(t, got.Results[0].Findings, 2, "one finding per crawled URL")
	assert.Equal(t, types.SeverityMedium, got.Results[1].Findings[0].Severity)

	assert.Equal(t, "http://juice-shop:3000/", zap.CallsTo("spider/action/scan")[0].Params.Get("url"))
}

func TestIntegration_FailedRunKeepsPartialResults(t *testing.T) {
	srv, ts, zap := newIntegrationServer(t)
	zap.URLs = nil

	jobID := submit(t, ts, `{"target": "http://juice-shop:3000/"}`)
	job := waitForFinish(t, srv.Manager(), jobID)

	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "no URLs found")
	assert.False(t, zap.Called("core/view/alerts"))

	resp, err := http.Get(ts.URL + "/api/v1/scans/" + jobID + "/report?format=json")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var results []types.ScanResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "no URLs found")
}

func TestIntegration_HTMLReport(t *testing.T) {
	srv, ts, zap := newIntegrationServer(t)

	jobID := submit(t, ts, `{"target": "http://juice-shop:3000/", "steps": ["alerts"]}`)
	waitForFinish(t, srv.Manager(), jobID)

	resp, err := http.Get(ts.URL + "/api/v1/scans/" + jobID + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<!DOCTYPE html>")
	assert.Contains(t, string(body), "Content Security Policy")
	assert.Contains(t, string(body), zap.URL)
}

func TestIntegration_ListAndDelete(t *testing.T) {
	srv, ts, _ := newIntegrationServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/scans")
	require.NoError(t, err)
	var list []interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Empty(t, list)

	jobID := submit(t, ts, `{"target": "http://juice-shop:3000/", "steps": ["alerts"]}`)
	waitForFinish(t, srv.Manager(), jobID)

	resp, err = http.Get(ts.URL + "/api/v1/scans")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Len(t, list, 1)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/scans/"+jobID, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/scans/" + jobID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_Steps(t *testing.T) {
	_, ts, _ := newIntegrationServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/steps")
	require.NoError(t, err)
	defer resp.Body.Close()

	var steps []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&steps))
	require.Len(t, steps, 2)
	assert.Equal(t, "spider", steps[0]["name"])
	assert.Equal(t, "alerts", steps[1]["name"])
}
