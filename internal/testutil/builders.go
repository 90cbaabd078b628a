package testutil

import (
	"time"

	"github.com/target/genjobs/internal/domain/model"
)

// JobBuilder provides a fluent interface for building Job records for testing.
type JobBuilder struct {
	job *model.Job
}

// NewJob creates a new JobBuilder with sensible defaults.
func NewJob(id string) *JobBuilder {
	return &JobBuilder{
		job: model.NewJob(id, "render a sunset", map[string]any{"dry_run": true}, TestTime()),
	}
}

// WithPrompt sets the job prompt.
func (b *JobBuilder) WithPrompt(prompt string) *JobBuilder {
	b.job.Prompt = prompt
	return b
}

// WithSettings sets the job settings.
func (b *JobBuilder) WithSettings(settings map[string]any) *JobBuilder {
	b.job.Settings = settings
	return b
}

// WithStatus sets the job status.
func (b *JobBuilder) WithStatus(status model.JobStatus) *JobBuilder {
	b.job.Status = status
	return b
}

// CreatedAt sets both timestamps.
func (b *JobBuilder) CreatedAt(ts time.Time) *JobBuilder {
	b.job.CreatedAt = ts
	b.job.UpdatedAt = ts
	return b
}

// WithResult sets the job result.
func (b *JobBuilder) WithResult(result map[string]any) *JobBuilder {
	b.job.Result = result
	return b
}

// Build returns the constructed job.
func (b *JobBuilder) Build() *model.Job {
	return b.job
}
