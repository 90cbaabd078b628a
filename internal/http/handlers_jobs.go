// Package httpx provides HTTP handlers and utilities for the genjobs API.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/genjobs/internal/core"
	domainauth "github.com/target/genjobs/internal/domain/auth"
	"github.com/target/genjobs/internal/domain/model"
	apperrors "github.com/target/genjobs/internal/errors"
	"github.com/target/genjobs/internal/service"
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc    *service.JobService
	Logger *slog.Logger
}

// CreateJob handles POST /api/jobs. Accepted jobs are returned with 202.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req core.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Submit(r.Context(), caller(r), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Svc.List(r.Context(), caller(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Get(r.Context(), r.PathValue("id"), caller(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// CancelJob handles POST /api/jobs/{id}/cancel.
func (h *JobHandlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Cancel(r.Context(), r.PathValue("id"), caller(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

func caller(r *http.Request) domainauth.Identity {
	id, _ := GetIdentityFromContext(r.Context())
	return id
}

// statusForError maps an application error code to its HTTP status.
func statusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *JobHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForError(err)
	body := errorBody{Code: string(apperrors.GetCode(err))}

	var appErr *apperrors.AppError
	switch {
	case code == http.StatusNotFound:
		body.Error = "not found"
	case code < http.StatusInternalServerError && errors.As(err, &appErr):
		body.Error = appErr.Message
		body.Field = appErr.Field
	default:
		h.logger().ErrorContext(r.Context(), "job request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		body.Error = http.StatusText(code)
		if body.Code == "" {
			body.Code = string(apperrors.ErrCodeInternal)
		}
	}
	WriteJSON(w, code, body)
}

func (h *JobHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
