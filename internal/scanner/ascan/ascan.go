// Package ascan drives ZAP's active scanner against URLs already in the
// site tree.
package ascan

import (
	"context"
	"fmt"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/zap"
	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus"
)

const module = "ascan"

// Scanner runs one active scan. An instance starts at most one job.
type Scanner struct {
	PollInterval time.Duration
	StartDelay   time.Duration

	engine   scanner.Engine
	config   *zapconfig.Configuration
	resolver *scanner.Resolver
	log      logrus.FieldLogger

	scanID    int
	targetURL string
}

// New creates an active scan step. cfg may be nil.
func New(engine scanner.Engine, cfg *zapconfig.Configuration, log logrus.FieldLogger) *Scanner {
	defaults := scanner.DefaultOptions()
	return &Scanner{
		PollInterval: defaults.PollInterval,
		StartDelay:   *defaults.StartDelay,
		engine:       engine,
		config:       cfg,
		resolver:     scanner.NewResolver(cfg, engine, log),
		log:          log.WithField("step", module),
		scanID:       -1,
	}
}

func (s *Scanner) Name() string        { return "ascan" }
func (s *Scanner) Description() string { return "Attack the crawled URLs with the ZAP active scanner" }

// HasJob reports whether an active scan was started.
func (s *Scanner) HasJob() bool { return s.scanID >= 0 }

// ID returns the job handle, -1 before a successful Start.
func (s *Scanner) ID() int { return s.scanID }

func options(sec *zapconfig.ActiveScan) []scanner.Option {
	return []scanner.Option{
		scanner.IntOption("MaxRuleDurationInMins", sec.MaxRuleDurationInMins),
		scanner.IntOption("MaxScanDurationInMins", sec.MaxScanDurationInMins),
		scanner.IntOption("ThreadPerHost", sec.ThreadPerHost),
		scanner.IntOption("DelayInMs", sec.DelayInMs),
		scanner.BoolOption("AddQueryParam", sec.AddQueryParam),
		scanner.BoolOption("HandleAntiCSRFTokens", sec.HandleAntiCSRFTokens),
		scanner.BoolOption("InjectPluginIdInHeader", sec.InjectPluginIDInHeader),
		scanner.BoolOption("ScanHeadersAllRequests", sec.ScanHeadersAllRequests),
		scanner.StringOption("DefaultPolicy", sec.DefaultPolicy),
	}
}

// Configure pushes every option present in sec to the engine.
func (s *Scanner) Configure(ctx context.Context, sec *zapconfig.ActiveScan) error {
	applied, err := scanner.ApplyOptions(ctx, module, s.engine.Ascan, options(sec))
	if len(applied) > 0 {
		s.log.WithField("options", applied).Debug("Active scan options applied")
	}
	return err
}

// Start clears old active scans and starts a new one as described by sec.
// A nil sec scans targetURL recursively with the default policy.
func (s *Scanner) Start(ctx context.Context, targetURL string, sec *zapconfig.ActiveScan) error {
	if s.HasJob() {
		return fmt.Errorf("active scan %d already started", s.scanID)
	}
	if err := s.engine.Ascan.RemoveAllScans(ctx); err != nil {
		return fmt.Errorf("removing previous active scans: %w", err)
	}

	raw, err := s.startJob(ctx, targetURL, sec)
	if err != nil {
		return err
	}
	id, err := scanner.ParseHandle(module, raw)
	if err != nil {
		return err
	}
	s.scanID = id
	s.log.WithFields(logrus.Fields{"scan_id": id, "url": s.targetURL}).Info("Active scan started")

	return scanner.Sleep(ctx, s.StartDelay)
}

func (s *Scanner) startJob(ctx context.Context, targetURL string, sec *zapconfig.ActiveScan) (string, error) {
	params := zap.ScanParams{URL: targetURL, Recurse: true, ContextID: -1}
	if sec == nil {
		s.targetURL = targetURL
		return s.scan(ctx, params, -1)
	}

	url, fromSection := scanner.TargetURL(sec.URL, targetURL)
	if !fromSection {
		s.log.WithField("section", sec.Name).Warn("No url configured in the scanner section, using the target url " + url)
	}
	s.targetURL = url

	if err := s.Configure(ctx, sec); err != nil {
		return "", err
	}
	ref, err := s.resolver.Resolve(ctx, sec.Context, sec.User)
	if err != nil {
		return "", err
	}

	params.URL = url
	params.Policy = sec.Policy
	if sec.Recurse != nil {
		params.Recurse = *sec.Recurse
	}
	if sec.InScopeOnly != nil {
		params.InScopeOnly = *sec.InScopeOnly
	}
	if ref.HasContext() {
		params.ContextID = ref.ContextID
	}
	if ref.HasUser() {
		s.log.WithFields(logrus.Fields{"context": ref.ContextName, "user": ref.UserName}).Info("Starting active scan as user")
		return s.scan(ctx, params, ref.UserID)
	}
	return s.scan(ctx, params, -1)
}

func (s *Scanner) scan(ctx context.Context, p zap.ScanParams, userID int) (string, error) {
	var (
		raw string
		err error
	)
	if userID >= 0 {
		raw, err = s.engine.Ascan.ScanAsUser(ctx, p, userID)
	} else {
		raw, err = s.engine.Ascan.Scan(ctx, p)
	}
	if err != nil {
		return "", &scanner.StartError{Module: module, Err: err}
	}
	return raw, nil
}

// AwaitCompletion polls the job until it reports 100%. It is a no-op without
// a started job.
func (s *Scanner) AwaitCompletion(ctx context.Context) error {
	if !s.HasJob() {
		return nil
	}
	for {
		progress, err := s.engine.Ascan.Status(ctx, s.scanID)
		if err != nil {
			return fmt.Errorf("polling active scan %d: %w", s.scanID, err)
		}
		if progress >= 100 {
			break
		}
		s.log.WithField("progress", progress).Info("Active scan in progress")
		if err := scanner.Sleep(ctx, s.PollInterval); err != nil {
			return err
		}
	}
	s.log.Info("Active scan completed")
	return nil
}

// Run starts an active scan for target with the section chosen for this
// step in opts or the one matching the target URL, and waits for it. Alerts
// are reported by the alerts step.
func (s *Scanner) Run(ctx context.Context, target types.Target, opts scanner.Options) (*types.ScanResult, error) {
	result := &types.ScanResult{
		ScannerName: s.Name(),
		Target:      target,
		StartedAt:   time.Now(),
	}

	targetURL := target.ResolveURL()
	if targetURL == "" {
		return nil, fmt.Errorf("cannot determine URL for target %q", target.Host)
	}

	sec, err := s.section(opts.Section(s.Name()), targetURL)
	if err != nil {
		return nil, err
	}
	opts.ApplyTiming(&s.PollInterval, &s.StartDelay)

	// Every run is a new job; the handle of an earlier run is dropped.
	s.reset()
	if err := s.Start(ctx, targetURL, sec); err != nil {
		return nil, err
	}
	if err := s.AwaitCompletion(ctx); err != nil {
		return nil, err
	}

	result.CompletedAt = time.Now()
	return result, nil
}

func (s *Scanner) section(name, targetURL string) (*zapconfig.ActiveScan, error) {
	if name != "" {
		if s.config == nil {
			return nil, fmt.Errorf("scanner %q: %w", name, zapconfig.ErrNotFound)
		}
		return s.config.Scanners().ByName(name)
	}
	if s.config == nil {
		return nil, nil
	}
	sec := s.config.Scanners().ByURL(targetURL)
	if sec == nil {
		s.log.WithField("url", targetURL).Info("No scanner section matches the target, running with engine defaults")
	}
	return sec, nil
}

func (s *Scanner) reset() {
	s.scanID = -1
	s.targetURL = ""
}
