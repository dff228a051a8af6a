package spider

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

const ajaxModule = "ajaxSpider"

// stopTimeout bounds the stop call made after a crawl was abandoned.
const stopTimeout = 10 * time.Second

// AjaxSpider runs the AJAX spider. The engine runs a single AJAX crawl at a
// time, so there is no job handle: the instance only tracks whether it started one.
type AjaxSpider struct {
	PollInterval time.Duration
	StartDelay   time.Duration

	engine   scanner.Engine
	config   *zapconfig.Configuration
	resolver *scanner.Resolver
	log      logrus.FieldLogger

	started   bool
	targetURL string
}

// NewAjax creates an AJAX spider step. cfg may be nil.
func NewAjax(engine scanner.Engine, cfg *zapconfig.Configuration, log logrus.FieldLogger) *AjaxSpider {
	defaults := scanner.DefaultOptions()
	return &AjaxSpider{
		PollInterval: defaults.PollInterval,
		StartDelay:   *defaults.StartDelay,
		engine:       engine,
		config:       cfg,
		resolver:     scanner.NewResolver(cfg, engine, log),
		log:          log.WithField("step", ajaxModule),
	}
}

func (s *AjaxSpider) Name() string        { return "ajax" }
func (s *AjaxSpider) Description() string { return "Crawl the target with the ZAP AJAX spider" }

// HasJob reports whether a crawl was started.
func (s *AjaxSpider) HasJob() bool { return s.started }

func ajaxOptions(sec *zapconfig.Spider) []scanner.Option {
	return []scanner.Option{
		scanner.IntOption("MaxDuration", sec.MaxDuration),
		scanner.IntOption("MaxCrawlStates", sec.MaxCrawlStates),
		scanner.IntOption("MaxCrawlDepth", sec.MaxCrawlDepth),
		scanner.IntOption("NumberOfBrowsers", sec.NumberOfBrowsers),
		scanner.IntOption("EventWait", sec.EventWait),
		scanner.IntOption("ReloadWait", sec.ReloadWait),
		scanner.StringOption("BrowserId", sec.BrowserID),
		scanner.BoolOption("ClickDefaultElems", sec.ClickDefaultElems),
		scanner.BoolOption("ClickElemsOnce", sec.ClickElemsOnce),
		scanner.BoolOption("RandomInputs", sec.RandomInputs),
	}
}

// Configure pushes every AJAX option present in sec to the engine.
func (s *AjaxSpider) Configure(ctx context.Context, sec *zapconfig.Spider) error {
	applied, err := scanner.ApplyOptions(ctx, ajaxModule, s.engine.AjaxSpider, ajaxOptions(sec))
	if len(applied) > 0 {
		s.log.WithField("options", applied).Debug("AJAX spider options applied")
	}
	return err
}

// Start seeds the site tree with targetURL and starts the crawl described by
// sec. A nil sec crawls targetURL with the engine's current options.
func (s *AjaxSpider) Start(ctx context.Context, targetURL string, sec *zapconfig.Spider) error {
	if s.started {
		return fmt.Errorf("AJAX spider already started for %s", s.targetURL)
	}
	if err := s.engine.Core.AccessURL(ctx, targetURL); err != nil {
		return fmt.Errorf("accessing %s: %w", targetURL, err)
	}

	res, err := s.startJob(ctx, targetURL, sec)
	if err != nil {
		return err
	}
	if res != zap.ResultOK {
		return &scanner.StartError{Module: ajaxModule, Result: res}
	}
	s.started = true
	s.log.WithField("url", s.targetURL).Info("AJAX spider started")

	if err := scanner.Sleep(ctx, s.StartDelay); err != nil {
		s.stop(ctx)
		return err
	}
	return nil
}

func (s *AjaxSpider) startJob(ctx context.Context, targetURL string, sec *zapconfig.Spider) (string, error) {
	if sec == nil {
		s.targetURL = targetURL
		res, err := s.engine.AjaxSpider.Scan(ctx, targetURL, false, "", false)
		if err != nil {
			return "", &scanner.StartError{Module: ajaxModule, Err: err}
		}
		return res, nil
	}

	url, fromSection := scanner.TargetURL(sec.URL, targetURL)
	if !fromSection {
		s.log.WithField("section", sec.Name).Warn("No url configured in the spider section, using the target url " + url)
	}
	s.targetURL = url

	if err := s.Configure(ctx, sec); err != nil {
		return "", err
	}

	ref, err := s.resolver.Resolve(ctx, sec.Context, sec.User)
	if err != nil {
		return "", err
	}

	subtreeOnly := sec.SubtreeOnly != nil && *sec.SubtreeOnly
	var res string
	if ref.HasUser() {
		s.log.WithFields(logrus.Fields{"context": ref.ContextName, "user": ref.UserName}).Info("Starting AJAX spider as user")
		res, err = s.engine.AjaxSpider.ScanAsUser(ctx, ref.ContextName, ref.UserName, url, subtreeOnly)
	} else {
		inScope := sec.InScope != nil && *sec.InScope
		res, err = s.engine.AjaxSpider.Scan(ctx, url, inScope, ref.ContextName, subtreeOnly)
	}
	if err != nil {
		return "", &scanner.StartError{Module: ajaxModule, Err: err}
	}
	return res, nil
}

// AwaitCompletion polls until the crawl reports "stopped" and returns the
// URLs of the site tree. It is a no-op when nothing was started. When
// polling fails or ctx ends first, the crawl is stopped in the engine.
func (s *AjaxSpider) AwaitCompletion(ctx context.Context) ([]string, error) {
	if !s.started {
		return nil, nil
	}

	if err := s.waitStopped(ctx); err != nil {
		s.stop(ctx)
		return nil, err
	}
	s.log.Info("AJAX spider completed")

	urls, err := s.engine.Core.URLs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing site tree: %w", err)
	}
	if len(urls) == 0 {
		return nil, scanner.ErrNoURLsFound
	}
	s.log.WithField("count", len(urls)).Info("URLs in the site tree")
	return urls, nil
}

func (s *AjaxSpider) waitStopped(ctx context.Context) error {
	for {
		status, err := s.engine.AjaxSpider.Status(ctx)
		if err != nil {
			return fmt.Errorf("polling AJAX spider: %w", err)
		}
		if status == zap.AjaxStatusStopped {
			return nil
		}
		n, err := s.engine.AjaxSpider.NumberOfResults(ctx)
		if err != nil {
			return fmt.Errorf("counting AJAX spider results: %w", err)
		}
		s.log.WithFields(logrus.Fields{"status": status, "results": n}).Info("AJAX spider in progress")
		if err := scanner.Sleep(ctx, s.PollInterval); err != nil {
			return err
		}
	}
}

// stop asks the engine to end the crawl. It runs on a context detached from
// ctx, which is usually already cancelled.
func (s *AjaxSpider) stop(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	if err := s.engine.AjaxSpider.Stop(ctx); err != nil {
		s.log.WithError(err).Warn("Could not stop the AJAX spider")
		return
	}
	s.log.Info("AJAX spider stopped")
}

// Run crawls target with the AJAX section chosen for this step in opts or
// the one matching the target URL.
func (s *AjaxSpider) Run(ctx context.Context, target types.Target, opts scanner.Options) (*types.ScanResult, error) {
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
	urls, err := s.AwaitCompletion(ctx)
	if err != nil {
		return nil, err
	}

	result.Findings = urlFindings("Crawled URL", "Present in the site tree after the AJAX spider", urls)
	result.CompletedAt = time.Now()
	return result, nil
}

func (s *AjaxSpider) section(name, targetURL string) (*zapconfig.Spider, error) {
	if name != "" {
		if s.config == nil {
			return nil, fmt.Errorf("spider %q: %w", name, zapconfig.ErrNotFound)
		}
		sec, err := s.config.Spiders().ByName(name)
		if err != nil {
			return nil, err
		}
		if !sec.Ajax {
			return nil, fmt.Errorf("spider section %q is not configured for the AJAX spider", name)
		}
		return sec, nil
	}
	if s.config == nil {
		return nil, nil
	}
	return s.config.Spiders().ByURL(targetURL, true), nil
}

func (s *AjaxSpider) reset() {
	s.started = false
	s.targetURL = ""
}
