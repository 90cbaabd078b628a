package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/genjobs/internal/core"
	"github.com/target/genjobs/internal/domain/model"
)

// DefaultJobEventsChannel is the pub/sub channel workers report status on.
const DefaultJobEventsChannel = "ai_job_events"

// RedisJobEvents publishes and subscribes to worker status events over Redis pub/sub.
type RedisJobEvents struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// RedisJobEventsOptions groups dependencies for RedisJobEvents.
type RedisJobEventsOptions struct {
	Client  redis.UniversalClient // Required
	Channel string                // Optional: defaults to DefaultJobEventsChannel
	Logger  *slog.Logger          // Optional
}

// NewRedisJobEvents creates a pub/sub adapter for job status events.
func NewRedisJobEvents(opts RedisJobEventsOptions) *RedisJobEvents {
	channel := opts.Channel
	if channel == "" {
		channel = DefaultJobEventsChannel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisJobEvents{
		client:  opts.Client,
		channel: channel,
		logger:  logger.With("component", "job_events", "channel", channel),
	}
}

// Publish sends evt to the events channel.
func (e *RedisJobEvents) Publish(ctx context.Context, evt model.StatusEvent) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	if err := e.client.Publish(ctx, e.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", e.channel, err)
	}
	return nil
}

// Subscribe streams decoded events until ctx is cancelled. Malformed messages are logged and skipped.
// The returned channel is closed when the subscription ends.
func (e *RedisJobEvents) Subscribe(ctx context.Context) (<-chan model.StatusEvent, error) {
	sub := e.client.Subscribe(ctx, e.channel)
	// Wait for the subscription confirmation so callers know Publish will be observed.
	if _, err := sub.Receive(ctx); err != nil {
		if cerr := sub.Close(); cerr != nil {
			e.logger.WarnContext(ctx, "close pubsub after subscribe failure", "error", cerr)
		}
		return nil, fmt.Errorf("redis subscribe %s: %w", e.channel, err)
	}

	out := make(chan model.StatusEvent)
	go func() {
		defer close(out)
		defer func() {
			if cerr := sub.Close(); cerr != nil {
				e.logger.Debug("close pubsub", "error", cerr)
			}
		}()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt model.StatusEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					e.logger.WarnContext(ctx, "dropping malformed job event", "error", err)
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

var (
	_ core.JobEventPublisher  = (*RedisJobEvents)(nil)
	_ core.JobEventSubscriber = (*RedisJobEvents)(nil)
)
