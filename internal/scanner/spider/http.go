// Package spider drives ZAP's two crawlers: the traditional HTTP spider and
// the browser-driven AJAX spider. Both read one spider section of the scan
// configuration, translate it into setOption calls, start a job and poll it
// until the engine reports completion.
package spider

import (
	"context"
	"fmt"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus"
)

const httpModule = "spider"

// HTTPSpider runs the traditional spider. An instance starts at most one job.
type HTTPSpider struct {
	// PollInterval is the delay between two status polls.
	PollInterval time.Duration
	// StartDelay is waited after a successful start, before the first poll.
	StartDelay time.Duration

	engine   scanner.Engine
	config   *zapconfig.Configuration
	resolver *scanner.Resolver
	log      logrus.FieldLogger

	spiderID  int
	targetURL string
}

// NewHTTP creates an HTTP spider step. cfg may be nil, in which case every
// run uses the engine's current spider options.
func NewHTTP(engine scanner.Engine, cfg *zapconfig.Configuration, log logrus.FieldLogger) *HTTPSpider {
	defaults := scanner.DefaultOptions()
	return &HTTPSpider{
		PollInterval: defaults.PollInterval,
		StartDelay:   *defaults.StartDelay,
		engine:       engine,
		config:       cfg,
		resolver:     scanner.NewResolver(cfg, engine, log),
		log:          log.WithField("step", httpModule),
		spiderID:     -1,
	}
}

func (s *HTTPSpider) Name() string        { return "spider" }
func (s *HTTPSpider) Description() string { return "Crawl the target with the ZAP HTTP spider" }

// HasJob reports whether a spider job was started.
func (s *HTTPSpider) HasJob() bool { return s.spiderID >= 0 }

// ID returns the job handle, -1 before a successful Start.
func (s *HTTPSpider) ID() int { return s.spiderID }

func httpOptions(sec *zapconfig.Spider) []scanner.Option {
	return []scanner.Option{
		scanner.IntOption("MaxDuration", sec.MaxDuration),
		scanner.IntOption("MaxDepth", sec.MaxDepth),
		scanner.IntOption("MaxChildren", sec.MaxChildren),
		scanner.IntOption("MaxParseSizeBytes", sec.MaxParseSizeBytes),
		scanner.BoolOption("AcceptCookies", sec.AcceptCookies),
		scanner.BoolOption("HandleODataParametersVisited", sec.HandleODataParametersVisited),
		scanner.StringOption("HandleParameters", sec.HandleParameters),
		scanner.BoolOption("ParseComments", sec.ParseComments),
		scanner.BoolOption("ParseGit", sec.ParseGit),
		scanner.BoolOption("ParseRobotsTxt", sec.ParseRobotsTxt),
		scanner.BoolOption("ParseSitemapXml", sec.ParseSitemapXML),
		scanner.BoolOption("ParseSVNEntries", sec.ParseSVNEntries),
		scanner.BoolOption("PostForm", sec.PostForm),
		scanner.BoolOption("ProcessForm", sec.ProcessForm),
		scanner.IntOption("RequestWaitTime", sec.RequestWaitTime),
		scanner.BoolOption("SendRefererHeader", sec.SendRefererHeader),
		scanner.IntOption("ThreadCount", sec.ThreadCount),
		scanner.StringOption("UserAgent", sec.UserAgent),
	}
}

// Configure pushes every option present in sec to the engine.
func (s *HTTPSpider) Configure(ctx context.Context, sec *zapconfig.Spider) error {
	applied, err := scanner.ApplyOptions(ctx, httpModule, s.engine.Spider, httpOptions(sec))
	if len(applied) > 0 {
		s.log.WithField("options", applied).Debug("Spider options applied")
	}
	return err
}

// Start clears old spider scans, seeds the site tree with targetURL and
// starts a new job as described by sec. A nil sec crawls targetURL without
// a context.
func (s *HTTPSpider) Start(ctx context.Context, targetURL string, sec *zapconfig.Spider) error {
	if s.HasJob() {
		return fmt.Errorf("spider job %d already started", s.spiderID)
	}

	if err := s.engine.Spider.RemoveAllScans(ctx); err != nil {
		return fmt.Errorf("removing previous spider scans: %w", err)
	}
	if err := s.engine.Core.AccessURL(ctx, targetURL); err != nil {
		return fmt.Errorf("accessing %s: %w", targetURL, err)
	}

	raw, err := s.startJob(ctx, targetURL, sec)
	if err != nil {
		return err
	}
	id, err := scanner.ParseHandle(httpModule, raw)
	if err != nil {
		return err
	}
	s.spiderID = id
	s.log.WithFields(logrus.Fields{"scan_id": id, "url": s.targetURL}).Info("Spider started")

	return scanner.Sleep(ctx, s.StartDelay)
}

func (s *HTTPSpider) startJob(ctx context.Context, targetURL string, sec *zapconfig.Spider) (string, error) {
	if sec == nil {
		s.targetURL = targetURL
		raw, err := s.engine.Spider.Scan(ctx, targetURL, "")
		if err != nil {
			return "", &scanner.StartError{Module: httpModule, Err: err}
		}
		return raw, nil
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

	var raw string
	if ref.HasUser() {
		s.log.WithFields(logrus.Fields{"context": ref.ContextName, "user": ref.UserName}).Info("Starting spider as user")
		raw, err = s.engine.Spider.ScanAsUser(ctx, url, ref.ContextID, ref.UserID)
	} else {
		raw, err = s.engine.Spider.Scan(ctx, url, ref.ContextName)
	}
	if err != nil {
		return "", &scanner.StartError{Module: httpModule, Err: err}
	}
	return raw, nil
}

// AwaitCompletion polls the job until it reports 100% and returns the URLs
// it processed. It is a no-op without a started job.
func (s *HTTPSpider) AwaitCompletion(ctx context.Context) ([]string, error) {
	if !s.HasJob() {
		return nil, nil
	}

	for {
		progress, err := s.engine.Spider.Status(ctx, s.spiderID)
		if err != nil {
			return nil, fmt.Errorf("polling spider %d: %w", s.spiderID, err)
		}
		if progress >= 100 {
			break
		}
		s.log.WithField("progress", progress).Info("Spider in progress")
		if err := scanner.Sleep(ctx, s.PollInterval); err != nil {
			return nil, err
		}
	}
	s.log.Info("Spider completed")

	urls, err := s.engine.Core.URLs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing site tree: %w", err)
	}
	if len(urls) == 0 {
		return nil, scanner.ErrNoURLsFound
	}
	s.log.WithField("count", len(urls)).Info("URLs in the site tree")

	results, err := s.engine.Spider.Results(ctx, s.spiderID)
	if err != nil {
		return nil, fmt.Errorf("fetching spider results: %w", err)
	}
	for _, u := range results {
		s.log.WithField("url", u).Debug("Spidered")
	}
	return results, nil
}

// Run starts the spider for target with the section chosen for this step in
// opts or, failing that, the one matching the target URL, and waits for it
// to finish.
func (s *HTTPSpider) Run(ctx context.Context, target types.Target, opts scanner.Options) (*types.ScanResult, error) {
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

	result.Findings = urlFindings("Spidered URL", "Discovered by the HTTP spider", urls)
	result.CompletedAt = time.Now()
	return result, nil
}

func (s *HTTPSpider) section(name, targetURL string) (*zapconfig.Spider, error) {
	if name != "" {
		if s.config == nil {
			return nil, fmt.Errorf("spider %q: %w", name, zapconfig.ErrNotFound)
		}
		sec, err := s.config.Spiders().ByName(name)
		if err != nil {
			return nil, err
		}
		if sec.Ajax {
			return nil, fmt.Errorf("spider section %q is configured for the AJAX spider", name)
		}
		return sec, nil
	}
	if s.config == nil {
		return nil, nil
	}
	sec := s.config.Spiders().ByURL(targetURL, false)
	if sec == nil {
		s.log.WithField("url", targetURL).Info("No spider section matches the target, running with engine defaults")
	}
	return sec, nil
}

func urlFindings(title, description string, urls []string) []types.Finding {
	findings := make([]types.Finding, 0, len(urls))
	for _, u := range urls {
		findings = append(findings, types.Finding{
			Title:       title,
			Description: description,
			Severity:    types.SeverityInfo,
			Evidence:    u,
		})
	}
	return findings
}

func (s *HTTPSpider) reset() {
	s.spiderID = -1
	s.targetURL = ""
}
