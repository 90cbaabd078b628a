package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/target/genjobs/internal/data"
	domainauth "github.com/target/genjobs/internal/domain/auth"
	"github.com/target/genjobs/internal/observability/statsd"
	"github.com/target/genjobs/internal/testutil"
)

var testCaller = domainauth.Identity{UserID: "tok_test", Method: domainauth.MethodScaffold}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type simulatedFixture struct {
	store     *data.MemoryJobStore
	sched     *testutil.ManualScheduler
	lifecycle *SimulatedLifecycle
	svc       *JobService
	metrics   *statsd.Recorder
}

func newSimulatedFixture(t *testing.T) *simulatedFixture {
	t.Helper()

	store := data.NewMemoryJobStore()
	sched := testutil.NewManualScheduler(testutil.TestTime())
	rec := &statsd.Recorder{}

	lifecycle, err := NewSimulatedLifecycle(SimulatedLifecycleOptions{
		Store:     store,
		Scheduler: sched,
		Logger:    discardLogger(),
		Metrics:   rec,
	})
	require.NoError(t, err)

	svc, err := NewJobService(JobServiceOptions{
		Store:     store,
		Lifecycle: lifecycle,
		Clock:     sched.Now,
		Logger:    discardLogger(),
		Metrics:   rec,
	})
	require.NoError(t, err)

	return &simulatedFixture{store: store, sched: sched, lifecycle: lifecycle, svc: svc, metrics: rec}
}
