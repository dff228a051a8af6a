package web

import (
	"encoding/json"
	"net/http"

	"github.com/buemura/zapx/internal/web/api"
	"github.com/go-chi/chi/v5"
)

// registerRoutes mounts all route groups on the server's router.
func (s *Server) registerRoutes() {
	apiHandlers := api.NewHandlers(s.manager, s.registry, s.cfg.Plan, s.cfg.Options)
	apiHandlers.ZAPURL = s.cfg.ZAPURL

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/steps", apiHandlers.ListSteps)
		r.Post("/scans", apiHandlers.CreateScan)
		r.Get("/scans", apiHandlers.ListScans)
		r.Get("/scans/{id}", apiHandlers.GetScan)
		r.Get("/scans/{id}/report", apiHandlers.GetScanReport)
		r.Post("/scans/{id}/cancel", apiHandlers.CancelScan)
		r.Delete("/scans/{id}", apiHandlers.DeleteScan)
	})
}

// handleHealth reports whether the server can reach ZAP.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	status := http.StatusOK

	if s.cfg.Version != nil {
		v, err := s.cfg.Version(r.Context())
		if err != nil {
			body["status"] = "degraded"
			body["error"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			body["zap_version"] = v
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
