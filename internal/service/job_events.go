package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/genjobs/internal/core"
	"github.com/target/genjobs/internal/domain/model"
	"github.com/target/genjobs/internal/observability/metrics"
	"github.com/target/genjobs/internal/observability/statsd"
)

// ErrEventStreamClosed is returned by Run when the subscription ends before ctx does.
var ErrEventStreamClosed = errors.New("job event stream closed")

// JobEventApplierOptions groups dependencies for JobEventApplier.
type JobEventApplierOptions struct {
	Store   core.JobStore           // Required
	Events  core.JobEventSubscriber // Required
	Clock   func() time.Time        // Optional
	Logger  *slog.Logger            // Optional
	Metrics statsd.Sink             // Optional
}

// JobEventApplier mirrors worker status reports onto the local job copies.
type JobEventApplier struct {
	store   core.JobStore
	events  core.JobEventSubscriber
	clock   func() time.Time
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewJobEventApplier constructs a JobEventApplier.
func NewJobEventApplier(opts JobEventApplierOptions) (*JobEventApplier, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Events == nil {
		return nil, errors.New("JobEventSubscriber is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobEventApplier{
		store:   opts.Store,
		events:  opts.Events,
		clock:   clock,
		logger:  logger.With("component", "job_event_applier"),
		metrics: opts.Metrics,
	}, nil
}

// Run applies events until ctx is cancelled. Individual bad events are logged and dropped.
func (a *JobEventApplier) Run(ctx context.Context) error {
	stream, err := a.events.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe job events: %w", err)
	}
	a.logger.InfoContext(ctx, "listening for job events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-stream:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrEventStreamClosed
			}
			if _, err := a.Apply(ctx, evt); err != nil {
				a.logger.WarnContext(ctx, "job event dropped",
					"job_id", evt.JobID,
					"status", evt.Status,
					"error", err,
				)
			}
		}
	}
}

// Apply moves the local copy of evt.JobID to the reported status.
// A terminal report for a job still queued passes through running first, since workers may
// report only the outcome. Re-reporting the current status is a no-op.
func (a *JobEventApplier) Apply(ctx context.Context, evt model.StatusEvent) (*model.Job, error) {
	next, err := model.ParseJobStatus(evt.Status)
	if err != nil {
		return nil, err
	}
	if next == model.JobStatusQueued {
		return nil, fmt.Errorf("%w: workers cannot report queued", model.ErrInvalidTransition)
	}

	var from model.JobStatus
	job, err := a.store.Update(ctx, evt.JobID, func(j *model.Job) error {
		from = j.Status
		if j.Status == next {
			return nil
		}
		now := a.clock()
		if j.Status == model.JobStatusQueued && (next == model.JobStatusSucceeded || next == model.JobStatusFailed) {
			if err := j.Transition(model.JobStatusRunning, nil, now); err != nil {
				return err
			}
		}
		return j.Transition(next, evt.Result, now)
	})
	if err != nil {
		metrics.EmitJobLifecycle(a.metrics, metrics.JobMetric{
			Source: metrics.SourceEvents, From: from, To: next, Result: metrics.ResultError, Err: err,
		})
		return nil, err
	}
	if from == next {
		return job, nil
	}

	attrs := []any{"job_id", job.ID, "from", from, "to", next}
	if evt.Error != "" {
		attrs = append(attrs, "reason", evt.Error)
	}
	if evt.RC != nil {
		attrs = append(attrs, "rc", *evt.RC)
	}
	a.logger.InfoContext(ctx, "job status reported by worker", attrs...)
	metrics.EmitJobLifecycle(a.metrics, metrics.JobMetric{
		Source:   metrics.SourceEvents,
		From:     from,
		To:       next,
		Result:   metrics.ResultSuccess,
		Duration: job.UpdatedAt.Sub(job.CreatedAt),
	})
	return job, nil
}
