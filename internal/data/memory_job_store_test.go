package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/genjobs/internal/domain/model"
	apperrors "github.com/target/genjobs/internal/errors"
	"github.com/target/genjobs/internal/testutil"
)

func TestMemoryJobStore_AppendAndGet(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := testutil.NewJob("1").Build()
	require.NoError(t, store.Append(ctx, job))

	got, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, job, got)
	assert.NotSame(t, job, got)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryJobStore_AppendRejectsInvalid(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.ErrorIs(t, store.Append(ctx, nil), ErrNilJob)
	require.ErrorIs(t, store.Append(ctx, &model.Job{}), ErrJobIDRequired)

	require.NoError(t, store.Append(ctx, testutil.NewJob("1").Build()))
	err := store.Append(ctx, testutil.NewJob("1").WithPrompt("other").Build())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	got, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "render a sunset", got.Prompt, "existing record must not be overwritten")
}

func TestMemoryJobStore_GetNotFound(t *testing.T) {
	store := NewMemoryJobStore()

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryJobStore_ListAllNewestFirst(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		job := testutil.NewJob(fmt.Sprint(i)).CreatedAt(testutil.TestTime().Add(time.Duration(i) * time.Second)).Build()
		require.NoError(t, store.Append(ctx, job))
	}

	jobs, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, []string{"3", "2", "1"}, ids(jobs))

	// Mutating a listed copy must not leak into the store.
	jobs[0].Status = model.JobStatusFailed
	got, err := store.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, got.Status)
}

func TestMemoryJobStore_ListAllEmpty(t *testing.T) {
	jobs, err := NewMemoryJobStore().ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NotNil(t, jobs)
}

func TestMemoryJobStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		store := NewMemoryJobStore()
		require.NoError(t, store.Append(ctx, testutil.NewJob("1").Build()))

		later := testutil.TestTime().Add(time.Minute)
		updated, err := store.Update(ctx, "1", func(j *model.Job) error {
			return j.Transition(model.JobStatusRunning, nil, later)
		})
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusRunning, updated.Status)
		assert.Equal(t, later, updated.UpdatedAt)

		got, err := store.Get(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusRunning, got.Status)
	})

	t.Run("leaves record unchanged on error", func(t *testing.T) {
		store := NewMemoryJobStore()
		require.NoError(t, store.Append(ctx, testutil.NewJob("1").Build()))

		boom := errors.New("boom")
		_, err := store.Update(ctx, "1", func(j *model.Job) error {
			j.Prompt = "changed"
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := store.Get(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "render a sunset", got.Prompt)
	})

	t.Run("keeps id and created_at", func(t *testing.T) {
		store := NewMemoryJobStore()
		require.NoError(t, store.Append(ctx, testutil.NewJob("1").Build()))

		updated, err := store.Update(ctx, "1", func(j *model.Job) error {
			j.ID = "2"
			j.CreatedAt = time.Time{}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "1", updated.ID)
		assert.Equal(t, testutil.TestTime(), updated.CreatedAt)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := NewMemoryJobStore().Update(ctx, "nope", func(*model.Job) error { return nil })
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestMemoryJobStore_ConcurrentAppend(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, testutil.NewJob(fmt.Sprint(i)).Build()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}

func ids(jobs []*model.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}
