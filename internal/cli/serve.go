package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/buemura/zapx/internal/web"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept scan requests over a REST API",
	Long: `Starts an HTTP server that queues pipeline runs against the configured ZAP
instance. Runs are executed one at a time because they share the engine.

  POST   /api/v1/scans              {"target": "...", "steps": [...], "ajax": false, "sections": {}}
  GET    /api/v1/scans              list runs
  GET    /api/v1/scans/{id}         status, progress and results
  GET    /api/v1/scans/{id}/report  ?format=html|json|yaml|markdown|table
  POST   /api/v1/scans/{id}/cancel
  DELETE /api/v1/scans/{id}
  GET    /api/v1/steps
  GET    /health                    includes the ZAP version`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", ":8090", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	// max_duration bounds each run, not the server.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.checkEngine(ctx); err != nil {
		// ZAP may come up after us; /health reports it meanwhile.
		s.log.WithError(err).Warn("ZAP is not reachable yet")
	}

	srv := web.NewServer(newRegistry(s), web.Config{
		Addr: appConfig.ServeAddr,
		Plan: func(target types.Target, ajax bool) []string {
			return defaultSteps(s, target, ajax)
		},
		Options:     s.options(nil),
		MaxDuration: appConfig.MaxDuration,
		ZAPURL:      appConfig.ZAP.URL,
		Version: func(ctx context.Context) (string, error) {
			return s.client.Version(ctx)
		},
		Log: s.log.WithField("component", "server"),
	})

	s.log.WithFields(logrus.Fields{"addr": appConfig.ServeAddr, "zap_url": appConfig.ZAP.URL}).Info("Serving scan API")
	return srv.Start(ctx)
}
