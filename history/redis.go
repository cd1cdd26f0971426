package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a Redis-backed snapshot store.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// Key is the Redis key holding the snapshot. Defaults to
	// "adaptive:history".
	Key string

	// ConnectTimeout is the maximum time to wait for connection
	// establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration
}

// RedisStore persists the snapshot as one JSON value under a single Redis
// key. Each save is one SET, preserving the whole-snapshot write contract;
// concurrent writers across processes must still serialize externally.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed snapshot store with the given options.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = "adaptive:history"
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}
	if opts.ReadTimeout > 0 {
		redisOpts.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		redisOpts.WriteTimeout = opts.WriteTimeout
	}

	return &RedisStore{
		client: redis.NewClient(redisOpts),
		key:    opts.Key,
	}, nil
}

// NewRedisStoreFromClient wraps an existing client, sharing its connection
// pool with the caller.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "adaptive:history"
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the snapshot value. A missing key or unparsable value yields an
// empty record set.
func (r *RedisStore) Load(ctx context.Context) ([]Record, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot key %s: %w", r.key, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil
	}
	return records, nil
}

// Save rewrites the snapshot value.
func (r *RedisStore) Save(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write snapshot key %s: %w", r.key, err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
