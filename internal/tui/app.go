// Package tui is the interactive terminal front end of zapx: pick a target,
// tick the steps, watch them run and browse the alerts.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/buemura/zapx/internal/scanner"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive TUI with the given step registry.
func Run(ctx context.Context, reg *scanner.Registry, cfg Config) error {
	m := NewModel(ctx, reg, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
