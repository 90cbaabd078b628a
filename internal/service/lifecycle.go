package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/target/genjobs/internal/core"
	domainjob "github.com/target/genjobs/internal/domain/job"
	"github.com/target/genjobs/internal/domain/model"
	"github.com/target/genjobs/internal/observability/metrics"
	"github.com/target/genjobs/internal/observability/statsd"
)

// Default lifecycle timings for the simulated backend.
const (
	DefaultRunningDelay  = 2 * time.Second
	DefaultSucceedDelay  = 1500 * time.Millisecond
	DefaultMockResultURL = "/tmp/dry_run_video.mp4"
)

// Lifecycle drives a job from queued to a terminal status once it has been stored.
type Lifecycle interface {
	// Start begins driving job. It never blocks on the job's progress.
	Start(ctx context.Context, job *model.Job)
	// Cancel drops any pending work for id.
	Cancel(id string)
	// Stop drops all pending work. Start is a no-op afterwards.
	Stop()
}

// SimulatedLifecycleOptions groups dependencies for SimulatedLifecycle.
type SimulatedLifecycleOptions struct {
	Store        core.JobStore       // Required
	Scheduler    domainjob.Scheduler // Optional: defaults to real timers
	RunningDelay time.Duration       // Optional: defaults to DefaultRunningDelay
	SucceedDelay time.Duration       // Optional: defaults to DefaultSucceedDelay
	ResultURL    string              // Optional: defaults to DefaultMockResultURL
	Logger       *slog.Logger        // Optional
	Metrics      statsd.Sink         // Optional
}

// SimulatedLifecycle advances jobs on timers: queued -> running after RunningDelay,
// then running -> succeeded with a mock result after a further SucceedDelay.
type SimulatedLifecycle struct {
	store        core.JobStore
	scheduler    domainjob.Scheduler
	runningDelay time.Duration
	succeedDelay time.Duration
	resultURL    string
	logger       *slog.Logger
	metrics      statsd.Sink

	mu      sync.Mutex
	pending map[string]domainjob.Task
	stopped bool
}

// NewSimulatedLifecycle constructs a SimulatedLifecycle.
func NewSimulatedLifecycle(opts SimulatedLifecycleOptions) (*SimulatedLifecycle, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	l := &SimulatedLifecycle{
		store:        opts.Store,
		scheduler:    opts.Scheduler,
		runningDelay: opts.RunningDelay,
		succeedDelay: opts.SucceedDelay,
		resultURL:    opts.ResultURL,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		pending:      make(map[string]domainjob.Task),
	}
	if l.scheduler == nil {
		l.scheduler = domainjob.NewTimerScheduler()
	}
	if l.runningDelay <= 0 {
		l.runningDelay = DefaultRunningDelay
	}
	if l.succeedDelay <= 0 {
		l.succeedDelay = DefaultSucceedDelay
	}
	if l.resultURL == "" {
		l.resultURL = DefaultMockResultURL
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "simulated_lifecycle")
	return l, nil
}

// Start schedules the running transition for job.
func (l *SimulatedLifecycle) Start(ctx context.Context, job *model.Job) {
	if job == nil {
		return
	}
	// Timers outlive the request that created the job.
	ctx = context.WithoutCancel(ctx)
	id := job.ID
	l.schedule(ctx, id, l.runningDelay, func() {
		if !l.advance(ctx, id, model.JobStatusRunning, nil) {
			l.finish(id)
			return
		}
		l.schedule(ctx, id, l.succeedDelay, func() {
			l.advance(ctx, id, model.JobStatusSucceeded, map[string]any{"url": l.resultURL})
			l.finish(id)
		})
	})
}

// Cancel stops the pending timer for id, if any.
func (l *SimulatedLifecycle) Cancel(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if task, ok := l.pending[id]; ok {
		task.Stop()
		delete(l.pending, id)
	}
	l.reportPendingLocked()
}

// Stop cancels every pending timer.
func (l *SimulatedLifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	for id, task := range l.pending {
		task.Stop()
		delete(l.pending, id)
	}
	l.reportPendingLocked()
}

// Pending returns the number of jobs with a scheduled transition.
func (l *SimulatedLifecycle) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *SimulatedLifecycle) schedule(ctx context.Context, id string, d time.Duration, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		l.logger.DebugContext(ctx, "lifecycle stopped; not scheduling", "job_id", id)
		return
	}
	l.pending[id] = l.scheduler.AfterFunc(d, fn)
	l.reportPendingLocked()
}

func (l *SimulatedLifecycle) finish(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
	l.reportPendingLocked()
}

// advance applies one transition and reports whether it was committed.
func (l *SimulatedLifecycle) advance(ctx context.Context, id string, next model.JobStatus, result map[string]any) bool {
	var from model.JobStatus
	updated, err := l.store.Update(ctx, id, func(j *model.Job) error {
		from = j.Status
		return j.Transition(next, result, l.scheduler.Now())
	})
	if err != nil {
		// Expected after a cancel: the job is already terminal.
		l.logger.DebugContext(ctx, "simulated transition skipped", "job_id", id, "to", next, "error", err)
		metrics.EmitJobLifecycle(l.metrics, metrics.JobMetric{
			Source: metrics.SourceSimulated, From: from, To: next, Result: metrics.ResultNoop,
		})
		return false
	}

	l.logger.InfoContext(ctx, "job status changed", "job_id", id, "from", from, "to", next)
	metrics.EmitJobLifecycle(l.metrics, metrics.JobMetric{
		Source:   metrics.SourceSimulated,
		From:     from,
		To:       next,
		Result:   metrics.ResultSuccess,
		Duration: updated.UpdatedAt.Sub(updated.CreatedAt),
	})
	return true
}

func (l *SimulatedLifecycle) reportPendingLocked() {
	if l.metrics == nil {
		return
	}
	l.metrics.Gauge("job.pending", float64(len(l.pending)), map[string]string{"source": metrics.SourceSimulated})
}

// ExternalLifecycle leaves progress to an out-of-process worker reading the queue.
type ExternalLifecycle struct {
	logger *slog.Logger
}

// NewExternalLifecycle constructs an ExternalLifecycle.
func NewExternalLifecycle(logger *slog.Logger) *ExternalLifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExternalLifecycle{logger: logger.With("component", "external_lifecycle")}
}

// Start records the hand-off; the local copy stays queued until a worker reports.
func (l *ExternalLifecycle) Start(ctx context.Context, job *model.Job) {
	if job == nil {
		return
	}
	l.logger.InfoContext(ctx, "job handed off to external worker", "job_id", job.ID)
}

// Cancel is a no-op; the worker owns the job's progress.
func (l *ExternalLifecycle) Cancel(string) {}

// Stop is a no-op.
func (l *ExternalLifecycle) Stop() {}

var (
	_ Lifecycle = (*SimulatedLifecycle)(nil)
	_ Lifecycle = (*ExternalLifecycle)(nil)
)
