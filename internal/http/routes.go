package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/genjobs/internal/ports"
	"github.com/target/genjobs/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs   *service.JobService
	Auth   ports.Authenticator
	Logger *slog.Logger // optional
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	jobHandlers := &JobHandlers{Svc: services.Jobs, Logger: logger.With("component", "job_handlers")}
	registerJobRoutes(mux, jobHandlers, RequireAuth(services.Auth, logger))

	mux.Handle("GET /api/health", http.HandlerFunc(healthHandler))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers, auth func(http.Handler) http.Handler) {
	mux.Handle("POST /api/jobs", auth(http.HandlerFunc(h.CreateJob)))
	mux.Handle("GET /api/jobs", auth(http.HandlerFunc(h.ListJobs)))
	mux.Handle("GET /api/jobs/{id}", auth(http.HandlerFunc(h.GetJob)))
	mux.Handle("POST /api/jobs/{id}/cancel", auth(http.HandlerFunc(h.CancelJob)))
}
