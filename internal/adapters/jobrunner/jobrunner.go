// Package jobrunner provides the queue-consuming worker for the genjobs service.
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/genjobs/internal/core"
	"github.com/target/genjobs/internal/domain/model"
	"github.com/target/genjobs/internal/observability/metrics"
	"github.com/target/genjobs/internal/observability/statsd"
)

// Worker defaults.
const (
	DefaultPollTimeout   = 5 * time.Second
	DefaultErrorBackoff  = 5 * time.Second
	DefaultMockResultURL = "/tmp/dry_run_video.mp4"
)

// ReasonGenerationDisabled is reported for jobs that ask for real generation.
const ReasonGenerationDisabled = "generation disabled"

// RunnerOptions configures the job runner adapter.
type RunnerOptions struct {
	Queue  core.JobQueue          // Required: source of job snapshots
	Events core.JobEventPublisher // Required: status reports
	Logger *slog.Logger

	// Job processing settings
	PollTimeout   time.Duration // blocking pop timeout; defaults to 5s
	WorkDuration  time.Duration // simulated work per dry-run job; zero means none
	ErrorBackoff  time.Duration // wait after a queue error; defaults to 5s
	Concurrency   int           // number of worker goroutines; defaults to 1
	DryRunDefault bool          // used when a job's settings carry no dry_run flag
	ResultURL     string        // mock result for dry runs; defaults to DefaultMockResultURL

	Metrics statsd.Sink
}

// Runner pops jobs from the external queue and reports their progress as status events.
type Runner struct {
	queue        core.JobQueue
	events       core.JobEventPublisher
	logger       *slog.Logger
	pollTimeout  time.Duration
	workDuration time.Duration
	errorBackoff time.Duration
	workers      int
	dryRun       bool
	resultURL    string
	metrics      statsd.Sink
}

// NewRunner constructs a job runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Queue == nil {
		return nil, errors.New("JobQueue is required")
	}
	if opts.Events == nil {
		return nil, errors.New("JobEventPublisher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		queue:        opts.Queue,
		events:       opts.Events,
		logger:       logger.With("component", "job_runner"),
		pollTimeout:  opts.PollTimeout,
		workDuration: max(opts.WorkDuration, 0),
		errorBackoff: opts.ErrorBackoff,
		workers:      opts.Concurrency,
		dryRun:       opts.DryRunDefault,
		resultURL:    opts.ResultURL,
		metrics:      opts.Metrics,
	}
	if r.pollTimeout <= 0 {
		r.pollTimeout = DefaultPollTimeout
	}
	if r.errorBackoff <= 0 {
		r.errorBackoff = DefaultErrorBackoff
	}
	if r.workers <= 0 {
		r.workers = 1
	}
	if r.resultURL == "" {
		r.resultURL = DefaultMockResultURL
	}
	return r, nil
}

// Run starts worker goroutines and processes jobs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting job runner",
		"workers", r.workers,
		"poll_timeout", r.pollTimeout,
		"dry_run_default", r.dryRun,
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := range r.workers {
		g.Go(func() error {
			return r.workerLoop(gctx, i)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Runner) workerLoop(ctx context.Context, worker int) error {
	logger := r.logger.With("worker", worker)
	for ctx.Err() == nil {
		payload, err := r.queue.Pop(ctx, r.pollTimeout)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			logger.WarnContext(ctx, "queue pop failed; backing off", "error", err, "backoff", r.errorBackoff)
			if !sleep(ctx, r.errorBackoff) {
				return nil
			}
		case payload == nil:
			// poll timeout; loop and block again
		default:
			r.Process(ctx, payload)
		}
	}
	return nil
}

// Process handles one queue payload. Undecodable payloads are logged and dropped.
func (r *Runner) Process(ctx context.Context, payload []byte) {
	job, err := model.UnmarshalSnapshot(payload)
	if err != nil {
		r.logger.WarnContext(ctx, "dropping undecodable job payload", "error", err)
		return
	}

	start := time.Now()
	dryRun := r.isDryRun(job)
	logger := r.logger.With("job_id", job.ID, "dry_run", dryRun)
	logger.InfoContext(ctx, "received job")

	if !r.publish(ctx, model.StatusEvent{JobID: job.ID, Status: string(model.JobStatusRunning)}) {
		return
	}

	if !dryRun {
		rc := 1
		r.publish(ctx, model.StatusEvent{
			JobID:  job.ID,
			Status: string(model.JobStatusFailed),
			RC:     &rc,
			Error:  ReasonGenerationDisabled,
		})
		r.emit(model.JobStatusFailed, metrics.ResultError, time.Since(start), errors.New(ReasonGenerationDisabled))
		logger.InfoContext(ctx, "job failed", "reason", ReasonGenerationDisabled)
		return
	}

	if !sleep(ctx, r.workDuration) {
		logger.InfoContext(ctx, "job interrupted by shutdown")
		return
	}

	rc := 0
	if r.publish(ctx, model.StatusEvent{
		JobID:  job.ID,
		Status: string(model.JobStatusSucceeded),
		RC:     &rc,
		Result: map[string]any{"url": r.resultURL},
	}) {
		r.emit(model.JobStatusSucceeded, metrics.ResultSuccess, time.Since(start), nil)
		logger.InfoContext(ctx, "job succeeded")
	}
}

// isDryRun prefers the job's own boolean dry_run setting over the runner default.
func (r *Runner) isDryRun(job *model.Job) bool {
	if v, ok := job.Settings["dry_run"].(bool); ok {
		return v
	}
	return r.dryRun
}

func (r *Runner) publish(ctx context.Context, evt model.StatusEvent) bool {
	if err := r.events.Publish(ctx, evt); err != nil {
		r.logger.ErrorContext(ctx, "publish job event failed",
			"job_id", evt.JobID,
			"status", evt.Status,
			"error", fmt.Errorf("publish %s: %w", evt.Status, err),
		)
		return false
	}
	return true
}

func (r *Runner) emit(to model.JobStatus, result string, d time.Duration, err error) {
	metrics.EmitJobLifecycle(r.metrics, metrics.JobMetric{
		Source:   metrics.SourceWorker,
		From:     model.JobStatusRunning,
		To:       to,
		Result:   result,
		Duration: d,
		Err:      err,
	})
}

// sleep waits for d or until ctx is done, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
