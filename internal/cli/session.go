package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/buemura/zapx/internal/logger"
	"github.com/buemura/zapx/internal/output"
	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/zap"
	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// session bundles what one command invocation shares: the logger, the ZAP
// client and the scan configuration.
type session struct {
	log    *logrus.Entry
	runID  string
	client *zap.Client
	engine scanner.Engine
	scan   *zapconfig.Configuration
	target types.Target
}

func newSession(cmd *cobra.Command) (*session, error) {
	if targetFlag == "" {
		return nil, fmt.Errorf("--target (-t) is required")
	}
	target, err := types.ParseTarget(targetFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}
	if _, err := output.GetFormatter(outputFlag); err != nil {
		return nil, err
	}

	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	s.target = target
	return s, nil
}

// openSession sets up logging, the ZAP client and the scan configuration.
// Log lines meant for stderr go to logOut.
func openSession(logOut io.Writer) (*session, error) {
	base, err := logger.New(appConfig.Log, logOut)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	log, runID := logger.WithRun(base)

	client, err := zap.NewClient(zap.Options{
		BaseURL:           appConfig.ZAP.URL,
		APIKey:            appConfig.ZAP.APIKey,
		Timeout:           appConfig.ZAP.Timeout,
		RetryMax:          appConfig.ZAP.Retries,
		RequestsPerSecond: appConfig.ZAP.RateLimit,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	s := &session{
		log:    log,
		runID:  runID,
		client: client,
		engine: scanner.EngineFromClient(client),
	}

	if appConfig.ConfigDir != "" {
		s.scan, err = zapconfig.Load(appConfig.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("loading scan configuration: %w", err)
		}
		log.WithFields(logrus.Fields{"dir": s.scan.Dir(), "files": len(s.scan.Files())}).Info("Scan configuration loaded")
	} else {
		log.Warn("No --config-dir given; every step runs with ZAP's current settings")
	}

	return s, nil
}

// runContext returns the context a run executes in: cancelled on SIGINT or
// SIGTERM, and bounded by max_duration when set.
func (s *session) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if appConfig.MaxDuration <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, appConfig.MaxDuration)
	return ctx, func() {
		cancel()
		stop()
	}
}

// options builds the step options. sections maps step names to the
// configuration section each of them uses; nil matches by URL.
func (s *session) options(sections map[string]string) scanner.Options {
	delay := appConfig.StartDelay
	return scanner.Options{
		PollInterval: appConfig.PollInterval,
		StartDelay:   &delay,
		Sections:     sections,
	}
}

// checkEngine fails fast when ZAP is not reachable.
func (s *session) checkEngine(ctx context.Context) error {
	v, err := s.client.Version(ctx)
	if err != nil {
		return fmt.Errorf("ZAP at %s is not reachable: %w", s.client.BaseURL(), err)
	}
	s.log.WithFields(logrus.Fields{"zap_version": v, "zap_url": s.client.BaseURL()}).Info("Connected to ZAP")
	return nil
}

func render(w io.Writer, results []types.ScanResult) error {
	formatter, err := output.GetFormatter(outputFlag)
	if err != nil {
		return err
	}
	if h, ok := formatter.(*output.HTMLFormatter); ok {
		h.ZAPURL = appConfig.ZAP.URL
	}
	return formatter.Format(w, results)
}
