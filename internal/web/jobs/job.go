package jobs

import (
	"context"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/pkg/types"
)

// JobStatus represents the current state of a run.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Finished reports whether the status is final.
func (s JobStatus) Finished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// JobProgress tracks step-level progress within a job.
type JobProgress struct {
	TotalSteps     int    `json:"total_steps"`
	CompletedSteps int    `json:"completed_steps"`
	CurrentStep    string `json:"current_step"`
}

// Job is one queued run of the pipeline against a target.
type Job struct {
	ID          string             `json:"id"`
	Target      types.Target       `json:"target"`
	Steps       []string           `json:"steps"`
	Options     scanner.Options    `json:"-"`
	Status      JobStatus          `json:"status"`
	Results     []types.ScanResult `json:"results,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	StartedAt   time.Time          `json:"started_at,omitempty"`
	CompletedAt time.Time          `json:"completed_at,omitempty"`
	Progress    JobProgress        `json:"progress"`

	cancel context.CancelFunc
}

// FindingCount returns the total number of findings across all results.
func (j *Job) FindingCount() int {
	n := 0
	for _, r := range j.Results {
		n += len(r.Findings)
	}
	return n
}

// snapshot copies the job so it can be read while the run goes on.
func (j *Job) snapshot() *Job {
	c := *j
	c.Steps = append([]string(nil), j.Steps...)
	c.Results = append([]types.ScanResult(nil), j.Results...)
	c.cancel = nil
	return &c
}
