package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/polisgate/polisgate/internal/entities"
)

// DefaultRedisKey is the list key audit entries are appended to.
const DefaultRedisKey = "polisgate:audit"

// RedisSink appends audit entries to a Redis list, for deployments that
// stream audit data to an external consumer.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink creates a redis-backed audit sink. An empty key falls back
// to DefaultRedisKey.
func NewRedisSink(client *redis.Client, key string) (*RedisSink, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSink{client: client, key: key}, nil
}

// Write appends one entry as JSON to the list.
func (s *RedisSink) Write(ctx context.Context, entry *entities.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to push audit entry: %w", err)
	}
	return nil
}

// Len returns the number of entries currently in the list.
func (s *RedisSink) Len(ctx context.Context) (int64, error) {
	count, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read audit list length: %w", err)
	}
	return count, nil
}
