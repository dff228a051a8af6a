package scanner

import (
	"context"
	"time"

	"github.com/buemura/zapx/pkg/types"
)

// Scanner is the interface every step of a run implements. A step drives
// one engine module (context setup, spider, active scan, alert report).
type Scanner interface {
	Name() string
	Description() string
	Run(ctx context.Context, target types.Target, opts Options) (*types.ScanResult, error)
}

// Options holds run-wide execution parameters.
type Options struct {
	// PollInterval is the delay between two status polls. Zero keeps the
	// step's own interval.
	PollInterval time.Duration
	// StartDelay gives a freshly started job time to spin up before polling.
	// nil keeps the step's own delay; zero means no delay.
	StartDelay *time.Duration
	// Sections maps a step name to the configuration section it uses
	// instead of the one matching the target URL.
	Sections map[string]string
}

// DefaultOptions returns the polling cadence used against a real engine.
func DefaultOptions() Options {
	delay := 5 * time.Second
	return Options{
		PollInterval: time.Second,
		StartDelay:   &delay,
	}
}

// Section returns the section name chosen for step, or "" to match by URL.
func (o Options) Section(step string) string {
	return o.Sections[step]
}

// ApplyTiming overrides a step's poll interval and start delay with the
// values set in o.
func (o Options) ApplyTiming(pollInterval, startDelay *time.Duration) {
	if o.PollInterval > 0 {
		*pollInterval = o.PollInterval
	}
	if o.StartDelay != nil {
		*startDelay = *o.StartDelay
	}
}
