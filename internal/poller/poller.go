// Package poller implements the job status polling client.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/target/genjobs/internal/domain/model"
)

// DefaultInterval is the delay between polls.
const DefaultInterval = 2 * time.Second

// StatusUnknown is reported when a fetched job carries no status.
const StatusUnknown model.JobStatus = "unknown"

// ErrMaxWaitExceeded is returned by Run when MaxWait elapses before a terminal status.
var ErrMaxWaitExceeded = errors.New("max wait exceeded")

// Snapshot is one observation of a job.
type Snapshot struct {
	Status model.JobStatus
	Body   []byte // raw job document as served
}

// Fetcher retrieves the current state of a job.
type Fetcher interface {
	Fetch(ctx context.Context, jobID string) (Snapshot, error)
}

// Options configures a Poller.
type Options struct {
	JobID   string  // Required
	Fetcher Fetcher // Required
	Target  string  // shown in the start banner, e.g. the base URL

	Interval       time.Duration // defaults to DefaultInterval
	MaxWait        time.Duration // zero polls until a terminal status
	HeartbeatEvery int           // debug log every N unchanged polls; zero disables

	Out    io.Writer // status lines; defaults to io.Discard
	ErrOut io.Writer // fetch errors; defaults to io.Discard
	Logger *slog.Logger
	Clock  func() time.Time

	// Sleep waits between polls. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Poller repeatedly fetches a job until it reaches a terminal status.
type Poller struct {
	opts   Options
	logger *slog.Logger
	polls  int
}

// New constructs a Poller.
func New(opts Options) (*Poller, error) {
	if opts.JobID == "" {
		return nil, errors.New("job id is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.ErrOut == nil {
		opts.ErrOut = io.Discard
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{opts: opts, logger: logger.With("component", "poller", "job_id", opts.JobID)}, nil
}

// Polls returns how many fetches Run has issued.
func (p *Poller) Polls() int { return p.polls }

// Run polls until the job is terminal and returns that status.
// Fetch failures are reported and polling continues. Run stops early only when ctx
// is done or MaxWait elapses, returning the last observed status with the error.
func (p *Poller) Run(ctx context.Context) (model.JobStatus, error) {
	parent := ctx
	if p.opts.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.MaxWait)
		defer cancel()
	}

	fmt.Fprintf(p.opts.Out, "Polling job %s every %s at %s\n", p.opts.JobID, p.opts.Interval, p.opts.Target)

	var last model.JobStatus
	unchanged := 0
	for {
		p.polls++
		snap, err := p.opts.Fetcher.Fetch(ctx, p.opts.JobID)
		switch {
		case err != nil && ctx.Err() != nil:
			// Interrupted mid-request; fall through to the stop check below.
		case err != nil:
			fmt.Fprintf(p.opts.ErrOut, "Error fetching status: %v\n", err)
			p.logger.WarnContext(ctx, "fetch job status failed", "poll", p.polls, "error", err)
		default:
			status := snap.Status
			if status == "" {
				status = StatusUnknown
			}
			if status != last {
				fmt.Fprintf(p.opts.Out, "%s status=%s %s\n",
					p.opts.Clock().UTC().Format(time.RFC3339), status, compact(snap.Body))
				last = status
				unchanged = 0
			} else {
				unchanged++
				if p.opts.HeartbeatEvery > 0 && unchanged%p.opts.HeartbeatEvery == 0 {
					p.logger.DebugContext(ctx, "job still pending", "status", status, "poll", p.polls)
				}
			}
			if status.Terminal() {
				fmt.Fprintf(p.opts.Out, "Job finished with status: %s\n", status)
				return status, nil
			}
		}

		if err := p.opts.Sleep(ctx, p.opts.Interval); err != nil || ctx.Err() != nil {
			return last, p.stopReason(parent, ctx)
		}
	}
}

func (p *Poller) stopReason(parent, ctx context.Context) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrMaxWaitExceeded, p.opts.MaxWait)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return context.Canceled
}

// compact renders body on one line.
func compact(body []byte) string {
	if len(body) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return string(bytes.TrimSpace(body))
	}
	return buf.String()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
