package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// CreateScanRequest is the JSON body for POST /api/v1/scans.
type CreateScanRequest struct {
	Target string `json:"target"`
	// Steps to run in order; empty or ["all"] runs the default pipeline.
	Steps []string `json:"steps"`
	// Ajax forces the AJAX spider into the default pipeline.
	Ajax bool `json:"ajax"`
	// Sections maps a step name to the configuration section it uses
	// instead of the one matching the target URL.
	Sections map[string]string `json:"sections"`
}

// decodeCreateScanRequest reads and validates the request body.
func decodeCreateScanRequest(r *http.Request) (*CreateScanRequest, error) {
	var req CreateScanRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	req.Target = strings.TrimSpace(req.Target)
	if req.Target == "" {
		return nil, fmt.Errorf("target is required")
	}

	for _, s := range req.Steps {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("step names must not be empty")
		}
	}
	for step, name := range req.Sections {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("section name for step %q must not be empty", step)
		}
	}
	if len(req.Steps) == 1 && req.Steps[0] == "all" {
		req.Steps = nil
	}

	return &req, nil
}
