package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/target/genjobs/internal/core"
	domainauth "github.com/target/genjobs/internal/domain/auth"
	"github.com/target/genjobs/internal/domain/model"
	apperrors "github.com/target/genjobs/internal/errors"
	"github.com/target/genjobs/internal/observability/metrics"
	"github.com/target/genjobs/internal/observability/statsd"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Store     core.JobStore    // Required: job store (local or queue backed)
	Lifecycle Lifecycle        // Required: drives jobs after submission
	IDs       core.IDGenerator // Optional: defaults to a process-local sequence
	Clock     func() time.Time // Optional: defaults to time.Now in UTC
	Logger    *slog.Logger     // Optional: structured logger
	Metrics   statsd.Sink      // Optional: lifecycle metrics
}

// JobService provides business logic for submitting, listing and cancelling jobs.
type JobService struct {
	store     core.JobStore
	lifecycle Lifecycle
	ids       core.IDGenerator
	clock     func() time.Time
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Lifecycle == nil {
		return nil, errors.New("Lifecycle is required")
	}

	ids := opts.IDs
	if ids == nil {
		ids = &SequenceIDGenerator{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobService{
		store:     opts.Store,
		lifecycle: opts.Lifecycle,
		ids:       ids,
		clock:     clock,
		logger:    logger.With("component", "job_service"),
		metrics:   opts.Metrics,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Submit validates req, stores a queued job and starts its lifecycle.
func (s *JobService) Submit(ctx context.Context, caller domainauth.Identity, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, apperrors.ValidationField("prompt", "prompt required")
	}

	job := model.NewJob(s.ids.NextID(), req.Prompt, req.Settings, s.clock())
	if err := s.store.Append(ctx, job); err != nil {
		return nil, fmt.Errorf("append job: %w", err)
	}

	s.logger.InfoContext(ctx, "job submitted", "job_id", job.ID, "caller", caller.UserID)
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Source: metrics.SourceAPI,
		To:     model.JobStatusQueued,
		Result: metrics.ResultSuccess,
	})

	s.lifecycle.Start(ctx, job)
	return job, nil
}

// List returns every known job, newest first. Results are not scoped to caller.
func (s *JobService) List(ctx context.Context, caller domainauth.Identity) ([]*model.Job, error) {
	jobs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	s.logger.DebugContext(ctx, "jobs listed", "count", len(jobs), "caller", caller.UserID)
	return jobs, nil
}

// Get returns the job with id.
func (s *JobService) Get(ctx context.Context, id string, caller domainauth.Identity) (*model.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationField("id", "job id is required")
	}
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "job fetched", "job_id", id, "status", job.Status, "caller", caller.UserID)
	return job, nil
}

// Cancel moves a non-terminal job to cancelled and drops its pending lifecycle work.
// Cancelling a terminal job is a conflict.
func (s *JobService) Cancel(ctx context.Context, id string, caller domainauth.Identity) (*model.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationField("id", "job id is required")
	}

	var from model.JobStatus
	job, err := s.store.Update(ctx, id, func(j *model.Job) error {
		from = j.Status
		if j.Status.Terminal() {
			return apperrors.Conflictf("job %s is already %s", j.ID, j.Status)
		}
		return j.Transition(model.JobStatusCancelled, nil, s.clock())
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
				Source: metrics.SourceAPI, From: from, To: model.JobStatusCancelled, Result: metrics.ResultError, Err: err,
			})
		}
		return nil, err
	}

	s.lifecycle.Cancel(id)
	s.logger.InfoContext(ctx, "job cancelled", "job_id", id, "from", from, "caller", caller.UserID)
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Source:   metrics.SourceAPI,
		From:     from,
		To:       model.JobStatusCancelled,
		Result:   metrics.ResultSuccess,
		Duration: job.UpdatedAt.Sub(job.CreatedAt),
	})
	return job, nil
}

// Stop halts lifecycle work owned by the service.
func (s *JobService) Stop() {
	s.lifecycle.Stop()
}
