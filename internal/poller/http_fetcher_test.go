package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/genjobs/internal/domain/model"
	apperrors "github.com/target/genjobs/internal/errors"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/a%2Fb", r.URL.EscapedPath())
		assert.Equal(t, "Bearer demo-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a/b","status":"running"}`))
	}))
	t.Cleanup(srv.Close)

	f, err := NewHTTPFetcher(srv.URL+"/", "demo-token", srv.Client())
	require.NoError(t, err)

	snap, err := f.Fetch(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, snap.Status)
	assert.JSONEq(t, `{"id":"a/b","status":"running"}`, string(snap.Body))
}

func TestHTTPFetcher_Non2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	t.Cleanup(srv.Close)

	f, err := NewHTTPFetcher(srv.URL, "t", nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "9")
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestHTTPFetcher_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f, err := NewHTTPFetcher(url, "t", nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestNewHTTPFetcher_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:4000", "::nope"} {
		_, err := NewHTTPFetcher(raw, "t", nil)
		assert.True(t, apperrors.IsValidation(err), raw)
	}
}
