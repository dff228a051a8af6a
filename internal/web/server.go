// Package web serves the zapx REST API: pipeline runs against the configured
// ZAP instance are submitted, queued and reported over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/web/api"
	"github.com/buemura/zapx/internal/web/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// VersionFunc reports the version of the engine behind the server.
type VersionFunc func(ctx context.Context) (string, error)

// Config wires the server to the engine.
type Config struct {
	Addr    string
	Plan    api.PlanFunc
	Options scanner.Options
	// MaxDuration bounds each run; 0 means no bound.
	MaxDuration time.Duration
	ZAPURL      string
	Version     VersionFunc
	Log         logrus.FieldLogger
}

// Server is the HTTP server of "zapx serve".
type Server struct {
	router   chi.Router
	cfg      Config
	registry *scanner.Registry
	manager  *jobs.Manager
	log      logrus.FieldLogger
}

// NewServer builds a Server with middleware and routes configured.
func NewServer(reg *scanner.Registry, cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	manager := jobs.NewManager(scanner.NewRunner(reg, log), log)
	manager.MaxDuration = cfg.MaxDuration

	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		registry: reg,
		manager:  manager,
		log:      log,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.registerRoutes()

	return s
}

// Start listens on the configured address until ctx is cancelled, then
// cancels the queued runs and shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	s.manager.CancelAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the chi.Router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Manager exposes the job manager for testing.
func (s *Server) Manager() *jobs.Manager {
	return s.manager
}

// requestLogger logs one line per request through logrus.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("HTTP request")
		})
	}
}
