package data

import (
	"context"
	"slices"
	"sync"

	"github.com/target/genjobs/internal/core"
	"github.com/target/genjobs/internal/domain/model"
	apperrors "github.com/target/genjobs/internal/errors"
)

// MemoryJobStore keeps jobs in insertion order inside the process.
// It is safe for concurrent use; records never leave the store by reference.
type MemoryJobStore struct {
	mu    sync.RWMutex
	order []*model.Job
	byID  map[string]*model.Job
}

// NewMemoryJobStore creates an empty in-process job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		byID: make(map[string]*model.Job),
	}
}

// Append stores a copy of job. Duplicate ids are rejected with a conflict error.
func (s *MemoryJobStore) Append(_ context.Context, job *model.Job) error {
	if job == nil {
		return ErrNilJob
	}
	if job.ID == "" {
		return ErrJobIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[job.ID]; exists {
		return apperrors.Conflictf("job %s already exists", job.ID)
	}
	cp := job.Clone()
	s.order = append(s.order, cp)
	s.byID[cp.ID] = cp
	return nil
}

// ListAll returns copies of every job, newest first.
func (s *MemoryJobStore) ListAll(_ context.Context) ([]*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Job, 0, len(s.order))
	for _, j := range slices.Backward(s.order) {
		out = append(out, j.Clone())
	}
	return out, nil
}

// Get returns a copy of the job with the given id.
func (s *MemoryJobStore) Get(_ context.Context, id string) (*model.Job, error) {
	if id == "" {
		return nil, ErrJobIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	return j.Clone(), nil
}

// Update runs fn against a working copy and commits it only when fn succeeds.
func (s *MemoryJobStore) Update(_ context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	if id == "" {
		return nil, ErrJobIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	// id is the store key; keep it immutable even if fn touched it.
	working.ID = current.ID
	working.CreatedAt = current.CreatedAt
	*current = *working
	return current.Clone(), nil
}

// Len returns the number of stored jobs.
func (s *MemoryJobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

var _ core.JobStore = (*MemoryJobStore)(nil)
