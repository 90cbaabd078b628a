package config

import "time"

// WorkerConfig contains queue worker configuration (SERVICES=job-worker).
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"1"`

	// PollTimeout is the blocking pop timeout.
	PollTimeout time.Duration `env:"WORKER_POLL_TIMEOUT" envDefault:"5s"`

	// WorkDuration is the simulated time spent on each dry-run job.
	WorkDuration time.Duration `env:"WORKER_WORK_DURATION" envDefault:"1s"`

	// ErrorBackoff is the wait after a queue connection error.
	ErrorBackoff time.Duration `env:"WORKER_ERROR_BACKOFF" envDefault:"5s"`

	// DryRun is used for jobs whose settings carry no dry_run flag.
	DryRun bool `env:"WORKER_DRY_RUN" envDefault:"true"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.PollTimeout < time.Second {
		// Redis blocking pops have one-second resolution.
		w.PollTimeout = time.Second
	}
	if w.WorkDuration < 0 {
		w.WorkDuration = 0
	}
	if w.ErrorBackoff <= 0 {
		w.ErrorBackoff = 5 * time.Second
	}
}
