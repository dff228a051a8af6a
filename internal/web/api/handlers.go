// Package api implements the REST surface of "zapx serve": runs are
// submitted as jobs, polled, and their results rendered by any report format.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/buemura/zapx/internal/output"
	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/web/jobs"
	"github.com/buemura/zapx/pkg/types"
	"github.com/go-chi/chi/v5"
)

// PlanFunc returns the default steps for a target. ajax asks for the AJAX
// spider even when no configuration section calls for it.
type PlanFunc func(target types.Target, ajax bool) []string

// Handlers holds dependencies for the REST API handlers.
type Handlers struct {
	Manager  *jobs.Manager
	Registry *scanner.Registry
	Plan     PlanFunc
	// Options is the template every job's options start from.
	Options scanner.Options
	// ZAPURL is shown in HTML reports.
	ZAPURL string
}

// NewHandlers creates API handlers with the given dependencies.
func NewHandlers(manager *jobs.Manager, registry *scanner.Registry, plan PlanFunc, opts scanner.Options) *Handlers {
	return &Handlers{Manager: manager, Registry: registry, Plan: plan, Options: opts}
}

var reportContentTypes = map[string]string{
	"html":     "text/html; charset=utf-8",
	"json":     "application/json",
	"yaml":     "application/yaml",
	"markdown": "text/markdown; charset=utf-8",
	"table":    "text/plain; charset=utf-8",
}

// CreateScan handles POST /api/v1/scans.
func (h *Handlers) CreateScan(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateScanRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := types.ParseTarget(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target: "+err.Error())
		return
	}

	steps := req.Steps
	if len(steps) == 0 {
		if h.Plan != nil {
			steps = h.Plan(target, req.Ajax)
		} else {
			steps = h.Registry.Names()
		}
	}
	for _, name := range steps {
		if _, err := h.Registry.Get(name); err != nil {
			writeStepError(w, name, err.Error())
			return
		}
	}

	for step := range req.Sections {
		if !slices.Contains(steps, step) {
			writeStepError(w, step, fmt.Sprintf("section given for step %q, which is not part of the run", step))
			return
		}
	}

	opts := h.Options
	opts.Sections = req.Sections

	job := h.Manager.Create(target, steps, opts)
	// The run outlives the request; shutdown cancels it through the manager.
	if err := h.Manager.Start(context.WithoutCancel(r.Context()), job.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start scan: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     job.ID,
		"status": job.Status,
		"steps":  job.Steps,
	})
}

// ListScans handles GET /api/v1/scans.
func (h *Handlers) ListScans(w http.ResponseWriter, r *http.Request) {
	jobList := h.Manager.List()

	type scanSummary struct {
		ID           string         `json:"id"`
		Target       string         `json:"target"`
		Status       jobs.JobStatus `json:"status"`
		CreatedAt    time.Time      `json:"created_at"`
		Steps        []string       `json:"steps"`
		FindingCount int            `json:"finding_count"`
	}

	summaries := make([]scanSummary, len(jobList))
	for i, j := range jobList {
		summaries[i] = scanSummary{
			ID:           j.ID,
			Target:       j.Target.ResolveURL(),
			Status:       j.Status,
			CreatedAt:    j.CreatedAt,
			Steps:        j.Steps,
			FindingCount: j.FindingCount(),
		}
	}

	writeJSON(w, http.StatusOK, summaries)
}

// GetScan handles GET /api/v1/scans/{id}.
func (h *Handlers) GetScan(w http.ResponseWriter, r *http.Request) {
	job, ok := h.job(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetScanReport handles GET /api/v1/scans/{id}/report?format=html. Failed
// and cancelled runs report the steps that ran.
func (h *Handlers) GetScanReport(w http.ResponseWriter, r *http.Request) {
	job, ok := h.job(w, r)
	if !ok {
		return
	}
	if !job.Status.Finished() {
		writeError(w, http.StatusConflict, "scan is not finished yet")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "html"
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if hf, ok := formatter.(*output.HTMLFormatter); ok {
		hf.ZAPURL = h.ZAPURL
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, job.Results); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", reportContentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// CancelScan handles POST /api/v1/scans/{id}/cancel.
func (h *Handlers) CancelScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Manager.Cancel(id); err != nil {
		writeJobError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// DeleteScan handles DELETE /api/v1/scans/{id}.
func (h *Handlers) DeleteScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Manager.Delete(id); err != nil {
		writeJobError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSteps handles GET /api/v1/steps.
func (h *Handlers) ListSteps(w http.ResponseWriter, r *http.Request) {
	type stepInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	all := h.Registry.All()
	steps := make([]stepInfo, len(all))
	for i, s := range all {
		steps[i] = stepInfo{Name: s.Name(), Description: s.Description()}
	}
	writeJSON(w, http.StatusOK, steps)
}

func (h *Handlers) job(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	job, err := h.Manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeJobError(w, err)
		return nil, false
	}
	return job, true
}
