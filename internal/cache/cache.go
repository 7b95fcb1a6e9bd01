// Package cache keeps short-lived derived values, such as dashboard counts, in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

// KV is the minimal key/value surface the cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Del(ctx, keys...).Err()
}

func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

const dashboardPrefix = "ahara:dashboard:"

// Dashboard caches per-practitioner dashboard payloads as JSON. A nil *Dashboard is a
// valid, disabled cache.
type Dashboard struct {
	kv  KV
	ttl time.Duration
}

// NewDashboard returns a dashboard cache writing entries with ttl.
func NewDashboard(kv KV, ttl time.Duration) *Dashboard {
	return &Dashboard{kv: kv, ttl: ttl}
}

func dashboardKey(practitionerID uint) string {
	return dashboardPrefix + strconv.FormatUint(uint64(practitionerID), 10)
}

// Load decodes the cached payload into dest. It returns ErrMiss when nothing is cached.
func (d *Dashboard) Load(ctx context.Context, practitionerID uint, dest any) error {
	if d == nil {
		return ErrMiss
	}
	raw, err := d.kv.Get(ctx, dashboardKey(practitionerID))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("cache: decode dashboard: %w", err)
	}
	return nil
}

// Store saves value for practitionerID.
func (d *Dashboard) Store(ctx context.Context, practitionerID uint, value any) error {
	if d == nil {
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode dashboard: %w", err)
	}
	return d.kv.Set(ctx, dashboardKey(practitionerID), string(encoded), d.ttl)
}

// Invalidate drops the cached payload of practitionerID.
func (d *Dashboard) Invalidate(ctx context.Context, practitionerID uint) error {
	if d == nil {
		return nil
	}
	return d.kv.Delete(ctx, dashboardKey(practitionerID))
}

// InvalidateAll drops every cached dashboard. Catalogue-wide changes use it.
func (d *Dashboard) InvalidateAll(ctx context.Context) error {
	if d == nil {
		return nil
	}
	keys, err := d.kv.ScanKeys(ctx, dashboardPrefix+"*")
	if err != nil {
		return err
	}
	return d.kv.Delete(ctx, keys...)
}
