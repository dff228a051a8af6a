package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/buemura/zapx/internal/web/jobs"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	// Step is set when the error concerns one step of the requested run.
	Step string `json:"step,omitempty"`
}

// writeJSON encodes data as JSON with the given status code. Job state
// changes while a run progresses, so answers are never cached.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}

// writeStepError rejects a request because of one of its steps.
func writeStepError(w http.ResponseWriter, step, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: http.StatusBadRequest, Step: step})
}

// writeJobError maps a job manager error to its status code.
func writeJobError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, jobs.ErrFinished):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}
