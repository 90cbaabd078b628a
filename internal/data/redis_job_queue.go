package data

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/genjobs/internal/core"
)

// DefaultJobQueueKey is the Redis list that workers consume.
const DefaultJobQueueKey = "ai_jobs"

// RedisJobQueue implements core.JobQueue on a Redis list.
// New entries are pushed on the head (LPUSH); workers pop from the tail (BRPOP),
// so consumption is first-in first-out.
type RedisJobQueue struct {
	client redis.UniversalClient
	key    string
}

// NewRedisJobQueue creates a queue bound to key. An empty key falls back to DefaultJobQueueKey.
func NewRedisJobQueue(client redis.UniversalClient, key string) *RedisJobQueue {
	if key == "" {
		key = DefaultJobQueueKey
	}
	return &RedisJobQueue{client: client, key: key}
}

// Key returns the Redis list key backing the queue.
func (q *RedisJobQueue) Key() string { return q.key }

// Push appends payload to the list.
func (q *RedisJobQueue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", q.key, err)
	}
	return nil
}

// ReadAll returns all payloads currently in the list, oldest first.
func (q *RedisJobQueue) ReadAll(ctx context.Context) ([][]byte, error) {
	raw, err := q.client.LRange(ctx, q.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", q.key, err)
	}

	out := make([][]byte, 0, len(raw))
	// LRANGE yields head-first, which is newest-first with LPUSH.
	for _, r := range slices.Backward(raw) {
		out = append(out, []byte(r))
	}
	return out, nil
}

// Pop removes and returns the oldest payload, waiting up to timeout.
// A timeout yields (nil, nil).
func (q *RedisJobQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis brpop %s: %w", q.key, err)
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("redis brpop %s: unexpected reply length %d", q.key, len(res))
	}
	return []byte(res[1]), nil
}

var _ core.JobQueue = (*RedisJobQueue)(nil)
