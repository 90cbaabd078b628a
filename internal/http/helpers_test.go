package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/target/genjobs/internal/adapters/devauth"
	"github.com/target/genjobs/internal/core"
	"github.com/target/genjobs/internal/data"
	"github.com/target/genjobs/internal/domain/model"
	"github.com/target/genjobs/internal/service"
	"github.com/target/genjobs/internal/testutil"
)

const testToken = "demo-token"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// routerFixture wires the real router to an in-memory store and a manual clock.
type routerFixture struct {
	store   core.JobStore
	sched   *testutil.ManualScheduler
	handler http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	return newRouterFixtureWithStore(t, data.NewMemoryJobStore())
}

func newRouterFixtureWithStore(t *testing.T, store core.JobStore) *routerFixture {
	t.Helper()

	sched := testutil.NewManualScheduler(testutil.TestTime())
	lifecycle, err := service.NewSimulatedLifecycle(service.SimulatedLifecycleOptions{
		Store:     store,
		Scheduler: sched,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)

	svc := service.MustNewJobService(service.JobServiceOptions{
		Store:     store,
		Lifecycle: lifecycle,
		Clock:     sched.Now,
		Logger:    discardLogger(),
	})
	t.Cleanup(svc.Stop)

	return &routerFixture{
		store: store,
		sched: sched,
		handler: NewRouter(RouterServices{
			Jobs:   svc,
			Auth:   devauth.NewScaffoldAuthenticator(),
			Logger: discardLogger(),
		}),
	}
}

// do sends a request through the router. An empty token sends no credentials.
func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) model.Job {
	t.Helper()
	var j model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &j), rec.Body.String())
	return j
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}
