package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/student-ai-platform/internal/config"
)

// RedisCache is a Cache shared between portal processes through Redis.
// Every key is namespaced under "<prefix>:".
type RedisCache struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, cfg.Prefix), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "portal"
	}
	return &RedisCache{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisCache) key(k string) string {
	return r.prefix + ":" + k
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Get implements Cache
func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) (Entry, bool, error) {
	vals, err := r.client.MGet(ctx, r.key(key), r.key(TimeKey(key))).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to get from cache: %w", err)
	}

	raw, ok := vals[0].(string)
	stamp, hasStamp := vals[1].(string)
	if !ok || !hasStamp {
		return Entry{}, false, nil
	}
	storedAt, valid := parseStamp(stamp)
	if !valid {
		return Entry{}, false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return Entry{}, false, fmt.Errorf("failed to unmarshal cached value %q: %w", key, err)
	}
	return Entry{StoredAt: storedAt}, true, nil
}

// Put implements Cache
func (r *RedisCache) Put(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(key), data, 0)
		pipe.Set(ctx, r.key(TimeKey(key)), formatStamp(r.now()), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write cache entry %q: %w", key, err)
	}
	return nil
}

// Delete implements Cache
func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		full = append(full, r.key(k), r.key(TimeKey(k)))
	}
	return r.client.Del(ctx, full...).Err()
}

// Exists implements Cache
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, r.key(key)).Result()
	return count > 0, err
}

// Clear implements Cache
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}
