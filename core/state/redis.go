package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "fsm:"

// RedisStore keeps records as JSON under "<prefix><namespace>:<user>".
// A positive TTL expires abandoned conversations.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed Store. Prefix may be empty.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(userID int64, namespace string) string {
	return r.prefix + namespace + ":" + strconv.FormatInt(userID, 10)
}

// Get loads and decodes the record.
func (r *RedisStore) Get(ctx context.Context, userID int64, namespace string) (Record, bool, error) {
	b, err := r.client.Get(ctx, r.key(userID, namespace)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("state get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, false, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return rec, true, nil
}

// Set stores the record, refreshing the TTL.
func (r *RedisStore) Set(ctx context.Context, userID int64, namespace string, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("state encode: %w", err)
	}
	if err := r.client.Set(ctx, r.key(userID, namespace), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("state set: %w", err)
	}
	return nil
}

// Clear deletes the record.
func (r *RedisStore) Clear(ctx context.Context, userID int64, namespace string) error {
	if err := r.client.Del(ctx, r.key(userID, namespace)).Err(); err != nil {
		return fmt.Errorf("state clear: %w", err)
	}
	return nil
}
