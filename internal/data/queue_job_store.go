package data

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/target/genjobs/internal/core"
	"github.com/target/genjobs/internal/domain/model"
	apperrors "github.com/target/genjobs/internal/errors"
)

// QueueJobStore keeps the authoritative local copy of each job and mirrors
// snapshots into an external queue for out-of-process workers.
type QueueJobStore struct {
	local  *MemoryJobStore
	queue  core.JobQueue
	logger *slog.Logger
}

// QueueJobStoreOptions groups dependencies for QueueJobStore.
type QueueJobStoreOptions struct {
	Local  *MemoryJobStore // Optional: defaults to a fresh MemoryJobStore
	Queue  core.JobQueue   // Required
	Logger *slog.Logger    // Optional
}

// NewQueueJobStore constructs a QueueJobStore.
func NewQueueJobStore(opts QueueJobStoreOptions) (*QueueJobStore, error) {
	if opts.Queue == nil {
		return nil, errors.New("JobQueue is required")
	}
	local := opts.Local
	if local == nil {
		local = NewMemoryJobStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueJobStore{
		local:  local,
		queue:  opts.Queue,
		logger: logger.With("component", "queue_job_store"),
	}, nil
}

// Append stores the job locally, then pushes a snapshot to the queue.
// Queue failures are logged and do not fail the append.
func (s *QueueJobStore) Append(ctx context.Context, job *model.Job) error {
	if err := s.local.Append(ctx, job); err != nil {
		return err
	}

	payload, err := job.MarshalSnapshot()
	if err != nil {
		s.logger.ErrorContext(ctx, "encode job for queue", "job_id", job.ID, "error", err)
		return nil
	}
	if err := s.queue.Push(ctx, payload); err != nil {
		uerr := apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "enqueue job")
		s.logger.ErrorContext(ctx, "failed to enqueue job", "job_id", job.ID, "error", uerr)
		return nil
	}
	s.logger.InfoContext(ctx, "enqueued job", "job_id", job.ID)
	return nil
}

// ListAll merges queue entries with local jobs. For an id present in both, the
// queue copy wins. Result is newest first.
func (s *QueueJobStore) ListAll(ctx context.Context) ([]*model.Job, error) {
	var (
		local    []*model.Job
		raw      [][]byte
		queueErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		local, err = s.local.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		raw, queueErr = s.queue.ReadAll(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if queueErr != nil {
		uerr := apperrors.Wrap(queueErr, apperrors.ErrCodeUnavailable, "read job queue")
		s.logger.WarnContext(ctx, "failed to read jobs from queue; serving local jobs", "error", uerr)
		return local, nil
	}

	external := make([]*model.Job, 0, len(raw))
	for _, r := range raw {
		j, err := model.UnmarshalSnapshot(r)
		if err != nil {
			s.logger.DebugContext(ctx, "skipping undecodable queue entry", "error", err)
			continue
		}
		external = append(external, j)
	}

	// local is newest first; the merge works in creation order.
	slices.Reverse(local)
	return MergeJobs(external, local), nil
}

// Get looks the job up locally; the queue is not indexed by id.
func (s *QueueJobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	return s.local.Get(ctx, id)
}

// Update mutates the local copy only.
func (s *QueueJobStore) Update(ctx context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	return s.local.Update(ctx, id, fn)
}

// MergeJobs unions external and local (both oldest first) by id, external
// entries first and kept on collision, then reverses the sequence and orders
// it by created_at descending. Equal timestamps keep the reversed order.
func MergeJobs(external, local []*model.Job) []*model.Job {
	seen := make(map[string]struct{}, len(external)+len(local))
	merged := make([]*model.Job, 0, len(external)+len(local))
	for _, group := range [][]*model.Job{external, local} {
		for _, j := range group {
			if j == nil {
				continue
			}
			if _, dup := seen[j.ID]; dup {
				continue
			}
			seen[j.ID] = struct{}{}
			merged = append(merged, j)
		}
	}

	slices.Reverse(merged)
	slices.SortStableFunc(merged, func(a, b *model.Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return merged
}

var _ core.JobStore = (*QueueJobStore)(nil)
