// Package cache provides the shared read cache for persisted patient records
// and the invalidation fan-out a commit triggers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/Veraticus/scribe/internal/model"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "scribe"

// DefaultTTL is used when NewRedis is given a non-positive TTL.
const DefaultTTL = 10 * time.Minute

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis stores list results under scribe:<category>:<patient>.
type Redis struct {
	client client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewRedis wraps a client. A nil logger uses slog.Default.
func NewRedis(c client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: c, ttl: ttl, logger: logger}
}

// Key returns the cache key of one category for one patient.
func Key(category model.Category, patientID model.PatientID) string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, category, patientID)
}

// Invalidate deletes the cached list of one category for one patient.
func (r *Redis) Invalidate(ctx context.Context, category model.Category, patientID model.PatientID) error {
	if err := r.client.Del(ctx, Key(category, patientID)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", category, err)
	}
	r.logger.Debug("Invalidated cached records", "category", category, "patient", patientID)
	return nil
}

// Get decodes a cached value into dest. It reports false on a miss.
func (r *Redis) Get(ctx context.Context, category model.Category, patientID model.PatientID, dest any) (bool, error) {
	data, err := r.client.Get(ctx, Key(category, patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", category, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", category, err)
	}
	return true, nil
}

// Set encodes value as JSON and stores it with the configured TTL.
func (r *Redis) Set(ctx context.Context, category model.Category, patientID model.PatientID, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", category, err)
	}
	if err := r.client.Set(ctx, Key(category, patientID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", category, err)
	}
	return nil
}
