package cli

import (
	"errors"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/spf13/cobra"
)

var (
	spiderAjax    bool
	spiderName    string
	spiderNoSetup bool
)

var spiderCmd = &cobra.Command{
	Use:   "spider",
	Short: "Crawl the target with one ZAP spider",
	Long: `Runs the HTTP spider (or the AJAX spider with --ajax) against the target.
The configured contexts are created first unless --no-contexts is given.
--name picks a spider section by name; an AJAX section selects the AJAX
spider by itself.`,
	RunE: runSpider,
}

func init() {
	spiderCmd.Flags().BoolVar(&spiderAjax, "ajax", false, "use the AJAX spider")
	spiderCmd.Flags().StringVar(&spiderName, "name", "", "spider section to use instead of matching by URL")
	spiderCmd.Flags().BoolVar(&spiderNoSetup, "no-contexts", false, "do not create the configured contexts first")
}

func runSpider(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	step := "spider"
	if spiderAjax {
		step = "ajax"
	}
	if spiderName != "" {
		if s.scan == nil {
			return errors.New("--name needs --config-dir")
		}
		sec, err := s.scan.Spiders().ByName(spiderName)
		if err != nil {
			if errors.Is(err, zapconfig.ErrNotFound) {
				s.log.WithField("spiders", len(s.scan.Spiders())).Error("Unknown spider section")
			}
			return err
		}
		if sec.Ajax {
			step = "ajax"
		}
	}

	steps := []string{step}
	if !spiderNoSetup {
		steps = append([]string{"contexts"}, steps...)
	}

	ctx, cancel := s.runContext(cmd.Context())
	defer cancel()

	if err := s.checkEngine(ctx); err != nil {
		return err
	}

	var sections map[string]string
	if spiderName != "" {
		sections = map[string]string{step: spiderName}
	}
	runner := scanner.NewRunner(newRegistry(s), s.log)
	results, runErr := runner.RunAll(ctx, steps, s.target, s.options(sections))

	if err := render(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	return runErr
}
