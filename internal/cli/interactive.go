package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/buemura/zapx/internal/tui"
	"github.com/buemura/zapx/pkg/types"
	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch interactive TUI mode",
	Long: `Start a terminal UI: enter a target, tick the pipeline steps, watch them run
and browse the alerts. Log lines only reach a log file, if one is configured.`,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal.
	s, err := openSession(io.Discard)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	// max_duration bounds each run, not the session.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.checkEngine(ctx); err != nil {
		return err
	}

	return tui.Run(ctx, newRegistry(s), tui.Config{
		ZAPURL:        appConfig.ZAP.URL,
		DefaultTarget: targetFlag,
		Plan: func(target types.Target) []string {
			return defaultSteps(s, target, false)
		},
		Options:     s.options(nil),
		MaxDuration: appConfig.MaxDuration,
		Log:         s.log,
	})
}
