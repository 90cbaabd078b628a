package config

import (
	"fmt"
	"strings"
	"time"
)

// IDStrategy selects how job ids are assigned.
type IDStrategy string

const (
	// IDStrategySequence assigns "1", "2", ... per process.
	IDStrategySequence IDStrategy = "sequence"
	// IDStrategyUUID assigns random UUIDs, for several API processes sharing one queue.
	IDStrategyUUID IDStrategy = "uuid"
)

// UnmarshalText implements encoding.TextUnmarshaler for IDStrategy.
func (s *IDStrategy) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "sequence", "uuid":
		*s = IDStrategy(v)
		return nil
	default:
		return fmt.Errorf("invalid IDStrategy: %q (valid options: sequence, uuid)", v)
	}
}

// JobsConfig contains job lifecycle configuration.
type JobsConfig struct {
	IDStrategy IDStrategy `env:"JOBS_ID_STRATEGY" envDefault:"sequence"`

	// RunningDelay and SucceedDelay time the simulated lifecycle used without an external queue.
	RunningDelay  time.Duration `env:"JOBS_RUNNING_DELAY"   envDefault:"2s"`
	SucceedDelay  time.Duration `env:"JOBS_SUCCEED_DELAY"   envDefault:"1500ms"`
	MockResultURL string        `env:"JOBS_MOCK_RESULT_URL" envDefault:"/tmp/dry_run_video.mp4"`

	// QueueKey is the Redis list jobs are pushed to.
	QueueKey string `env:"JOBS_QUEUE_KEY" envDefault:"ai_jobs"`
	// EventsChannel is the pub/sub channel workers report status on.
	EventsChannel string `env:"JOBS_EVENTS_CHANNEL" envDefault:"ai_job_events"`
}

// Sanitize restores defaults for blank or non-positive values.
func (j *JobsConfig) Sanitize() {
	if j.IDStrategy == "" {
		j.IDStrategy = IDStrategySequence
	}
	if j.RunningDelay <= 0 {
		j.RunningDelay = 2 * time.Second
	}
	if j.SucceedDelay <= 0 {
		j.SucceedDelay = 1500 * time.Millisecond
	}
	if j.MockResultURL = strings.TrimSpace(j.MockResultURL); j.MockResultURL == "" {
		j.MockResultURL = "/tmp/dry_run_video.mp4"
	}
	if j.QueueKey = strings.TrimSpace(j.QueueKey); j.QueueKey == "" {
		j.QueueKey = "ai_jobs"
	}
	if j.EventsChannel = strings.TrimSpace(j.EventsChannel); j.EventsChannel == "" {
		j.EventsChannel = "ai_job_events"
	}
}
