package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/genjobs/internal/domain/model"
	apperrors "github.com/target/genjobs/internal/errors"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxResponseBytes      = 1 << 20
)

// HTTPFetcher reads jobs from the genjobs HTTP API.
type HTTPFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPFetcher builds a fetcher for baseURL. A nil client gets a 10s timeout.
func NewHTTPFetcher(baseURL, token string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.ValidationField("base_url", fmt.Sprintf("invalid base url %q", baseURL))
	}
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(u.String(), "/"),
		token:   token,
		client:  client,
	}, nil
}

// Fetch issues GET {base}/api/jobs/{id}. Network failures and non-2xx replies are transport errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, jobID string) (Snapshot, error) {
	endpoint := f.baseURL + "/api/jobs/" + url.PathEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, apperrors.Wrap(err, apperrors.ErrCodeTransport, "build request")
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Snapshot{}, apperrors.Wrap(err, apperrors.ErrCodeTransport, "get job")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Snapshot{}, apperrors.Wrap(err, apperrors.ErrCodeTransport, "read job response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return Snapshot{}, apperrors.Wrapf(errors.New(detail), apperrors.ErrCodeTransport, "HTTP %d", resp.StatusCode)
	}

	var doc struct {
		Status model.JobStatus `json:"status"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return Snapshot{}, apperrors.Wrap(err, apperrors.ErrCodeTransport, "decode job response")
	}
	return Snapshot{Status: doc.Status, Body: body}, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
