package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus"
)

// Runner executes steps one after another. The engine session is shared by
// all steps, so nothing runs concurrently.
type Runner struct {
	registry *Registry
	log      logrus.FieldLogger
}

// NewRunner creates a runner backed by the given registry.
func NewRunner(registry *Registry, log logrus.FieldLogger) *Runner {
	return &Runner{registry: registry, log: log}
}

// RunAll executes the named steps in order and stops at the first failure.
// The results of the steps that ran are returned together with the error;
// the failed step contributes a result carrying the error text.
func (r *Runner) RunAll(ctx context.Context, names []string, target types.Target, opts Options) ([]types.ScanResult, error) {
	var results []types.ScanResult

	for _, name := range names {
		s, err := r.registry.Get(name)
		if err != nil {
			return results, err
		}

		r.log.WithField("step", name).Info(s.Description())
		started := time.Now()

		result, err := s.Run(ctx, target, opts)
		if err != nil {
			results = append(results, types.ScanResult{
				ScannerName: name,
				Target:      target,
				StartedAt:   started,
				CompletedAt: time.Now(),
				Error:       err.Error(),
			})
			return results, fmt.Errorf("%s: %w", name, err)
		}
		if result != nil {
			results = append(results, *result)
		}
	}

	return results, nil
}

// RunOne executes a single step by name.
func (r *Runner) RunOne(ctx context.Context, name string, target types.Target, opts Options) (*types.ScanResult, error) {
	s, err := r.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, target, opts)
}
