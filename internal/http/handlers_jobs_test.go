package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/genjobs/internal/domain/model"
	apperrors "github.com/target/genjobs/internal/errors"
	"github.com/target/genjobs/internal/mocks"
)

func TestJobs_RenderASunset(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/jobs", testToken, map[string]any{
		"prompt":   "render a sunset",
		"settings": map[string]any{"dry_run": true},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	created := decodeJob(t, rec)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, model.JobStatusQueued, created.Status)
	assert.Equal(t, "render a sunset", created.Prompt)
	assert.Equal(t, map[string]any{"dry_run": true}, created.Settings)
	assert.Nil(t, created.Result)

	get := func() model.Job {
		t.Helper()
		rec := f.do(t, http.MethodGet, "/api/jobs/"+created.ID, testToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decodeJob(t, rec)
	}

	assert.Equal(t, model.JobStatusQueued, get().Status)

	f.sched.Advance(2 * time.Second)
	assert.Equal(t, model.JobStatusRunning, get().Status)

	f.sched.Advance(1500 * time.Millisecond)
	done := get()
	assert.Equal(t, model.JobStatusSucceeded, done.Status)
	assert.Equal(t, map[string]any{"url": "/tmp/dry_run_video.mp4"}, done.Result)
	assert.True(t, done.UpdatedAt.After(done.CreatedAt))
}

func TestJobs_CreateValidation(t *testing.T) {
	f := newRouterFixture(t)

	for name, body := range map[string]any{
		"missing prompt":    map[string]any{"settings": map[string]any{}},
		"blank prompt":      map[string]any{"prompt": "   "},
		"empty body":        nil,
		"empty json object": "{}",
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/jobs", testToken, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, "prompt required", e.Error)
			assert.Equal(t, "validation", e.Code)
			assert.Equal(t, "prompt", e.Field)
		})
	}

	rec := f.do(t, http.MethodGet, "/api/jobs", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestJobs_CreateInvalidJSON(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/jobs", testToken, "{bad")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeError(t, rec).Code)
}

func TestJobs_RequireCredentials(t *testing.T) {
	f := newRouterFixture(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/jobs"},
		{http.MethodGet, "/api/jobs"},
		{http.MethodGet, "/api/jobs/1"},
		{http.MethodPost, "/api/jobs/1/cancel"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, "", map[string]any{"prompt": "x"})
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthenticated", decodeError(t, rec).Code)
		})
	}

	rec := f.do(t, http.MethodGet, "/api/jobs", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String(), "rejected submissions must not create jobs")
}

func TestJobs_CookieCredentials(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJobs_GetUnknown(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/jobs/does-not-exist", testToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeError(t, rec).Error)
}

func TestJobs_ListNewestFirst(t *testing.T) {
	f := newRouterFixture(t)

	for _, prompt := range []string{"first", "second", "third"} {
		rec := f.do(t, http.MethodPost, "/api/jobs", testToken, map[string]any{"prompt": prompt})
		require.Equal(t, http.StatusAccepted, rec.Code)
		f.sched.Advance(time.Millisecond)
	}

	rec := f.do(t, http.MethodGet, "/api/jobs", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var jobs []model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{jobs[0].Prompt, jobs[1].Prompt, jobs[2].Prompt})
	assert.Equal(t, []string{"3", "2", "1"}, []string{jobs[0].ID, jobs[1].ID, jobs[2].ID})
}

func TestJobs_Cancel(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/jobs", testToken, map[string]any{"prompt": "render a sunset"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decodeJob(t, rec).ID

	rec = f.do(t, http.MethodPost, "/api/jobs/"+id+"/cancel", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.JobStatusCancelled, decodeJob(t, rec).Status)

	// Pending timers no longer move the job.
	f.sched.Advance(10 * time.Second)
	rec = f.do(t, http.MethodGet, "/api/jobs/"+id, testToken, nil)
	assert.Equal(t, model.JobStatusCancelled, decodeJob(t, rec).Status)

	rec = f.do(t, http.MethodPost, "/api/jobs/"+id+"/cancel", testToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeError(t, rec).Code)

	rec = f.do(t, http.MethodPost, "/api/jobs/nope/cancel", testToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeError(t, rec).Error)
}

func TestJobs_StoreFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockJobStore(ctrl)
	store.EXPECT().ListAll(gomock.Any()).Return(nil, errors.New("boom"))
	f := newRouterFixtureWithStore(t, store)

	rec := f.do(t, http.MethodGet, "/api/jobs", testToken, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "internal", e.Code)
	assert.NotContains(t, e.Error, "boom")
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.ValidationField("prompt", "prompt required"), http.StatusBadRequest},
		{"not found", apperrors.NotFound("x"), http.StatusNotFound},
		{"conflict", apperrors.Conflictf("x"), http.StatusConflict},
		{"unauthenticated", apperrors.Unauthenticated("x"), http.StatusUnauthorized},
		{"unavailable", apperrors.Wrap(errors.New("dial"), apperrors.ErrCodeUnavailable, "queue"), http.StatusServiceUnavailable},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}
