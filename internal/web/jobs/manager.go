// Package jobs queues pipeline runs submitted over the REST API.
//
// All jobs share one ZAP instance, and every step resets the engine module it
// drives, so jobs run strictly one after another in submission order.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/pkg/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrFinished is returned when cancelling a job that already ended.
	ErrFinished = errors.New("job already finished")
)

// newID is a variable so tests can pin ids.
var newID = func() string { return uuid.NewString() }

// Manager manages the job lifecycle: create, queue, execute, track.
type Manager struct {
	// MaxDuration bounds each run, queueing time excluded; 0 means no bound.
	MaxDuration time.Duration

	mu     sync.RWMutex
	jobs   map[string]*Job
	runner *scanner.Runner
	log    logrus.FieldLogger

	// tail is closed when the most recently started job is done with the
	// engine. Each job waits for the one started before it.
	tail chan struct{}
}

// NewManager creates a job manager backed by the given runner.
func NewManager(runner *scanner.Runner, log logrus.FieldLogger) *Manager {
	return &Manager{
		jobs:   make(map[string]*Job),
		runner: runner,
		log:    log,
	}
}

// Create registers a pending job.
func (m *Manager) Create(target types.Target, steps []string, opts scanner.Options) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:        newID(),
		Target:    target,
		Steps:     append([]string(nil), steps...),
		Options:   opts,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		Progress:  JobProgress{TotalSteps: len(steps)},
	}
	m.jobs[job.ID] = job
	return job.snapshot()
}

// Start queues the job. It runs in the background as soon as the engine is
// free; ctx bounds the run.
func (m *Manager) Start(ctx context.Context, jobID string) error {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("job %q: %w", jobID, ErrNotFound)
	}
	if job.cancel != nil || job.Status != StatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job %q was already started", jobID)
	}
	ctx, cancel := context.WithCancel(ctx)
	job.cancel = cancel
	prev, done := m.tail, make(chan struct{})
	m.tail = done
	m.mu.Unlock()

	go m.execute(ctx, job, prev, done)
	return nil
}

// execute runs job once prev is closed and closes done when it no longer
// needs the engine. A job cancelled while queued still waits for prev, so
// the jobs behind it keep their order.
func (m *Manager) execute(ctx context.Context, job *Job, prev <-chan struct{}, done chan<- struct{}) {
	log := m.log.WithField("job_id", job.ID)

	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			m.finish(job, StatusFailed, fmt.Sprintf("panic: %v", r))
			log.WithField("panic", r).Error("Job crashed")
		}
	}()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			m.finish(job, StatusCancelled, ctx.Err().Error())
			<-prev
			return
		}
	}
	if ctx.Err() != nil {
		m.finish(job, StatusCancelled, ctx.Err().Error())
		return
	}

	if m.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.MaxDuration)
		defer cancel()
	}

	m.mu.Lock()
	job.Status = StatusRunning
	job.StartedAt = time.Now()
	m.mu.Unlock()
	log.WithFields(logrus.Fields{"target": job.Target.ResolveURL(), "steps": job.Steps}).Info("Job started")

	for _, name := range job.Steps {
		m.mu.Lock()
		job.Progress.CurrentStep = name
		m.mu.Unlock()

		started := time.Now()
		result, err := m.runner.RunOne(ctx, name, job.Target, job.Options)

		m.mu.Lock()
		if err != nil {
			job.Results = append(job.Results, types.ScanResult{
				ScannerName: name,
				Target:      job.Target,
				StartedAt:   started,
				CompletedAt: time.Now(),
				Error:       err.Error(),
			})
			m.mu.Unlock()

			status := StatusFailed
			if errors.Is(ctx.Err(), context.Canceled) {
				status = StatusCancelled
			}
			m.finish(job, status, fmt.Sprintf("%s: %v", name, err))
			log.WithError(err).WithField("step", name).Warn("Job stopped")
			return
		}
		if result != nil {
			job.Results = append(job.Results, *result)
		}
		job.Progress.CompletedSteps++
		m.mu.Unlock()
	}

	m.finish(job, StatusCompleted, "")
	log.WithField("findings", job.FindingCount()).Info("Job completed")
}

func (m *Manager) finish(job *Job, status JobStatus, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.Status = status
	job.Error = msg
	job.CompletedAt = time.Now()
	job.Progress.CurrentStep = ""
	if job.cancel != nil {
		job.cancel()
	}
}

// Get returns a snapshot of the job.
func (m *Manager) Get(jobID string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %q: %w", jobID, ErrNotFound)
	}
	return job.snapshot(), nil
}

// List returns snapshots of all jobs, newest first.
func (m *Manager) List() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		result = append(result, j.snapshot())
	}
	sort.SliceStable(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})
	return result
}

// Cancel stops a queued or running job. The job stays listed with status
// cancelled once its current engine call returns.
func (m *Manager) Cancel(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %q: %w", jobID, ErrNotFound)
	}
	if job.Status.Finished() {
		return fmt.Errorf("job %q: %w", jobID, ErrFinished)
	}
	if job.cancel == nil {
		// Never started.
		job.Status = StatusCancelled
		job.Error = context.Canceled.Error()
		job.CompletedAt = time.Now()
		return nil
	}
	job.cancel()
	return nil
}

// CancelAll stops every unfinished job.
func (m *Manager) CancelAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.jobs))
	for id, j := range m.jobs {
		if !j.Status.Finished() {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Cancel(id)
	}
}

// Delete cancels the job if needed and forgets it.
func (m *Manager) Delete(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %q: %w", jobID, ErrNotFound)
	}
	if job.cancel != nil {
		job.cancel()
	}
	delete(m.jobs, jobID)
	return nil
}
