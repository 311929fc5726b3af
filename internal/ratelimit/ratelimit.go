package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config bounds accepted requests per key within a sliding window.
type Config struct {
	Requests int
	Window   time.Duration
}

// Limiter admits or rejects one request for a key. Rejected requests
// must not count against the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is the process-local sliding-window limiter, used when no redis
// is configured and in tests.
type Memory struct {
	mu   sync.Mutex
	cfg  Config
	hits map[string][]time.Time
	now  func() time.Time
}

func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg, hits: map[string][]time.Time{}, now: time.Now}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	cutoff := now.Add(-m.cfg.Window)

	window := m.hits[key]
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= m.cfg.Requests {
		m.hits[key] = kept
		return false, nil
	}
	m.hits[key] = append(kept, now)
	return true, nil
}

// Redis is the shared sliding-window limiter for multi-instance
// deployments. Window bookkeeping lives in a sorted set per key.
type Redis struct {
	rdb    *redis.Client
	prefix string
	cfg    Config
}

func NewRedis(rdb *redis.Client, prefix string, cfg Config) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, cfg: cfg}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	// Sliding window in a sorted set scored by ms timestamps.
	// KEYS[1] = window key
	// ARGV[1] = max requests
	// ARGV[2] = window (ms)
	// ARGV[3] = now (ms)
	// Returns: 1 if allowed, 0 if not. Rejections do not extend the window.
	lua := `
local window_key = KEYS[1]
local max_requests = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', window_key, 0, now - window_ms)
local count = redis.call('ZCARD', window_key)
if count >= max_requests then
  return 0
end
redis.call('ZADD', window_key, now, now .. '-' .. count)
redis.call('PEXPIRE', window_key, window_ms)
return 1
`
	now := time.Now().UnixMilli()
	res, err := r.rdb.Eval(ctx, lua, []string{r.prefix + ":" + key},
		r.cfg.Requests, r.cfg.Window.Milliseconds(), now).Result()
	if err != nil {
		slog.Error("redis eval error", "key", key, "error", err)
		return false, err
	}
	var allowed int64
	switch v := res.(type) {
	case int64:
		allowed = v
	case string:
		allowed, _ = strconv.ParseInt(v, 10, 64)
	}
	slog.Debug("sliding window", "key", key, "allowed", allowed, "max", r.cfg.Requests)
	return allowed == 1, nil
}
