package metrics

import (
	"maps"
	"time"

	"github.com/target/genjobs/internal/domain/model"
	obserrors "github.com/target/genjobs/internal/observability/errors"
	"github.com/target/genjobs/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Source values identify which component drove a transition.
const (
	SourceAPI       = "api"
	SourceSimulated = "simulated"
	SourceEvents    = "events"
	SourceWorker    = "worker"
)

// JobMetric captures details about a job lifecycle event for metric emission.
type JobMetric struct {
	Source   string
	From     model.JobStatus
	To       model.JobStatus
	Result   string
	Duration time.Duration // time since created_at; only emitted for terminal targets
	Err      error
}

// Transition renders the transition tag, e.g. "queued->running". A missing From renders as "new".
func Transition(from, to model.JobStatus) string {
	if from == "" {
		from = "new"
	}
	return string(from) + "->" + string(to)
}

// EmitJobLifecycle emits standardised job lifecycle metrics.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"source":     in.Source,
		"transition": Transition(in.From, in.To),
		"result":     in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.transition", 1, tags)

	if in.Duration > 0 && in.To.Terminal() {
		sink.Timing("job.duration", in.Duration, maps.Clone(tags))
	}
}
