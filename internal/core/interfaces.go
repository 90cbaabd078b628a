package core

import (
	"context"
	"time"

	"github.com/target/genjobs/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// JobStore holds job records. Implementations hand out copies; mutation goes through Update.
type JobStore interface {
	// Append inserts a new record. An existing id is never overwritten.
	Append(ctx context.Context, job *model.Job) error
	// ListAll returns every known job, newest first.
	ListAll(ctx context.Context) ([]*model.Job, error)
	// Get looks a job up in the local store only.
	Get(ctx context.Context, id string) (*model.Job, error)
	// Update applies fn to the stored record atomically and returns the updated copy.
	// If fn returns an error the record is left unchanged.
	Update(ctx context.Context, id string, fn func(*model.Job) error) (*model.Job, error)
}

// JobQueue is the external append-only list used to hand jobs to out-of-process workers.
type JobQueue interface {
	// Push appends a serialized job snapshot.
	Push(ctx context.Context, payload []byte) error
	// ReadAll returns every payload currently in the list, oldest first.
	ReadAll(ctx context.Context) ([][]byte, error)
	// Pop removes the oldest payload, blocking up to timeout. It returns (nil, nil) on timeout.
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// JobEventPublisher publishes worker status updates.
type JobEventPublisher interface {
	Publish(ctx context.Context, evt model.StatusEvent) error
}

// JobEventSubscriber streams worker status updates until ctx is cancelled.
type JobEventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan model.StatusEvent, error)
}

// IDGenerator assigns identifiers to new jobs.
type IDGenerator interface {
	NextID() string
}
