package cli

import (
	"fmt"
	"slices"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/scanner/alerts"
	"github.com/buemura/zapx/internal/scanner/ascan"
	"github.com/buemura/zapx/internal/scanner/contexts"
	"github.com/buemura/zapx/internal/scanner/spider"
	"github.com/buemura/zapx/pkg/types"
	"github.com/spf13/cobra"
)

// pipeline lists every step in execution order.
var pipeline = []string{"contexts", "spider", "ajax", "ascan", "alerts"}

var (
	skipFlag    []string
	profileFlag string
	scanAjax    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the full ZAP pipeline against the target",
	Long: `Creates the configured contexts and users, crawls the target with the HTTP
spider (and the AJAX spider when a matching AJAX section exists or --ajax is
given), runs the active scanner and reports the alerts ZAP raised.

Each step picks the configuration section whose url prefixes the target.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&skipFlag, "skip", nil, "steps to leave out: contexts, spider, ajax, ascan, alerts")
	scanCmd.Flags().StringVar(&profileFlag, "profile", "", "run the steps of a scan profile from ~/.zapx.yaml")
	scanCmd.Flags().BoolVar(&scanAjax, "ajax", false, "run the AJAX spider even without a matching AJAX section")
}

func newRegistry(s *session) *scanner.Registry {
	reg := scanner.NewRegistry()
	reg.Register(contexts.New(s.engine, s.scan, s.log))
	reg.Register(spider.NewHTTP(s.engine, s.scan, s.log))
	reg.Register(spider.NewAjax(s.engine, s.scan, s.log))
	reg.Register(ascan.New(s.engine, s.scan, s.log))
	reg.Register(alerts.New(s.engine, s.log))
	return reg
}

// scanSteps decides which steps a scan runs.
func scanSteps(s *session) ([]string, error) {
	steps := defaultSteps(s, s.target, scanAjax)
	if profileFlag != "" {
		p := appConfig.GetProfile(profileFlag)
		if p == nil {
			return nil, fmt.Errorf("unknown scan profile %q", profileFlag)
		}
		for _, name := range p.Steps {
			if !slices.Contains(pipeline, name) {
				return nil, fmt.Errorf("scan profile %q: unknown step %q (steps: %v)", profileFlag, name, pipeline)
			}
		}
		steps = p.Steps
	}

	for _, name := range skipFlag {
		if !slices.Contains(pipeline, name) {
			return nil, fmt.Errorf("unknown step %q in --skip (steps: %v)", name, pipeline)
		}
	}

	var out []string
	for _, name := range steps {
		if !slices.Contains(skipFlag, name) {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no steps left to run")
	}
	return out, nil
}

// defaultSteps is the pipeline for target. The AJAX spider is left out
// unless ajax is set or an AJAX spider section matches the target.
func defaultSteps(s *session, target types.Target, ajax bool) []string {
	var out []string
	for _, name := range pipeline {
		if name == "ajax" && !ajax && !hasAjaxSection(s, target) {
			s.log.Debug("No AJAX spider section matches the target; skipping the AJAX spider")
			continue
		}
		out = append(out, name)
	}
	return out
}

func hasAjaxSection(s *session, target types.Target) bool {
	return s.scan != nil && s.scan.Spiders().ByURL(target.ResolveURL(), true) != nil
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	steps, err := scanSteps(s)
	if err != nil {
		return err
	}

	ctx, cancel := s.runContext(cmd.Context())
	defer cancel()

	if err := s.checkEngine(ctx); err != nil {
		return err
	}

	s.log.WithField("steps", steps).Info("Starting scan of " + s.target.ResolveURL())
	results, runErr := scanner.NewRunner(newRegistry(s), s.log).RunAll(ctx, steps, s.target, s.options(nil))

	if err := render(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	return runErr
}
