// Package model defines the core data types used throughout the genjobs service.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusQueued indicates a job was accepted and is waiting to be processed.
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning indicates a job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusSucceeded indicates a job finished and produced a result.
	JobStatusSucceeded JobStatus = "succeeded"
	// JobStatusFailed indicates a job stopped without a result.
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates a job was cancelled before it finished.
	JobStatusCancelled JobStatus = "cancelled"
)

// ErrInvalidTransition is returned when a status change violates the job state machine.
var ErrInvalidTransition = errors.New("invalid job status transition")

// Valid returns true if the JobStatus is one of the known states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// queued -> running -> {succeeded|failed}; cancelled from any non-terminal state.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	switch next {
	case JobStatusRunning:
		return s == JobStatusQueued
	case JobStatusSucceeded, JobStatusFailed:
		return s == JobStatusRunning
	case JobStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseJobStatus normalises an externally reported status.
// "completed" is accepted as an alias of succeeded.
func ParseJobStatus(raw string) (JobStatus, error) {
	v := JobStatus(strings.ToLower(strings.TrimSpace(raw)))
	if v == "completed" {
		return JobStatusSucceeded, nil
	}
	if !v.Valid() {
		return "", fmt.Errorf("invalid JobStatus: %q", raw)
	}
	return v, nil
}

// Job is one unit of submitted work.
type Job struct {
	ID        string         `json:"id"`
	Prompt    string         `json:"prompt"`
	Settings  map[string]any `json:"settings"`
	Status    JobStatus      `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Result    map[string]any `json:"result,omitempty"`
}

// NewJob builds a queued job. A nil settings map becomes an empty object.
func NewJob(id, prompt string, settings map[string]any, now time.Time) *Job {
	if settings == nil {
		settings = map[string]any{}
	}
	return &Job{
		ID:        id,
		Prompt:    prompt,
		Settings:  settings,
		Status:    JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the job to next. The result is kept only for succeeded;
// any other target clears it.
func (j *Job) Transition(next JobStatus, result map[string]any, now time.Time) error {
	if !j.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, next)
	}
	j.Status = next
	j.UpdatedAt = now
	if next == JobStatusSucceeded {
		if result == nil {
			result = map[string]any{}
		}
		j.Result = result
	} else {
		j.Result = nil
	}
	return nil
}

// Clone returns a deep enough copy for handing out of a store: maps are copied
// one level down, which covers the JSON object shapes settings and result carry.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Settings != nil {
		cp.Settings = maps.Clone(j.Settings)
	}
	if j.Result != nil {
		cp.Result = maps.Clone(j.Result)
	}
	return &cp
}

// MarshalSnapshot encodes the job as the JSON payload pushed to an external queue.
func (j *Job) MarshalSnapshot() ([]byte, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("marshal job %s: %w", j.ID, err)
	}
	return b, nil
}

// UnmarshalSnapshot decodes a queue payload. Entries without an id are rejected.
func UnmarshalSnapshot(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal job snapshot: %w", err)
	}
	if j.ID == "" {
		return nil, errors.New("job snapshot missing id")
	}
	if j.Settings == nil {
		j.Settings = map[string]any{}
	}
	return &j, nil
}

// CreateJobRequest represents a request to create a new job.
type CreateJobRequest struct {
	Prompt   string         `json:"prompt"`
	Settings map[string]any `json:"settings,omitempty"`
}

// StatusEvent is a status update reported by an out-of-process worker.
type StatusEvent struct {
	JobID  string         `json:"job_id"`
	Status string         `json:"status"`
	RC     *int           `json:"rc,omitempty"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}
