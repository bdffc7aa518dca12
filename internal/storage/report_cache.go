package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-sim/internal/monitor"
)

// ReportCache maps event file fingerprints to their reports. A simulation
// is deterministic, so a report never goes stale; the TTL only bounds size.
type ReportCache interface {
	Get(ctx context.Context, fingerprint string) (monitor.Report, bool, error)
	Set(ctx context.Context, fingerprint string, r monitor.Report) error
}

// MemoryCache is an in-process ReportCache.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	r  monitor.Report
	ts time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: make(map[string]cacheEntry), ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, fp string) (monitor.Report, bool, error) {
	c.mu.RLock()
	e, ok := c.store[fp]
	c.mu.RUnlock()
	if !ok {
		return monitor.Report{}, false, nil
	}
	if c.now().Sub(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, fp)
		c.mu.Unlock()
		return monitor.Report{}, false, nil
	}
	return e.r, true, nil
}

func (c *MemoryCache) Set(_ context.Context, fp string, r monitor.Report) error {
	c.mu.Lock()
	c.store[fp] = cacheEntry{r: r, ts: c.now()}
	c.mu.Unlock()
	return nil
}

// kv is the part of the redis client the cache uses.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisKV struct{ c *redis.Client }

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	return r.c.Get(ctx, key).Result()
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

// RedisCache stores reports as JSON under report:<fingerprint>.
type RedisCache struct {
	client *redis.Client
	kv     kv
	ttl    time.Duration
}

func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisCache{client: c, kv: redisKV{c}, ttl: ttl}
}

func ReportKey(fingerprint string) string { return "report:" + fingerprint }

func (r *RedisCache) Get(ctx context.Context, fp string) (monitor.Report, bool, error) {
	v, err := r.kv.Get(ctx, ReportKey(fp))
	if errors.Is(err, redis.Nil) {
		return monitor.Report{}, false, nil
	}
	if err != nil {
		return monitor.Report{}, false, err
	}
	var rep monitor.Report
	if err := json.Unmarshal([]byte(v), &rep); err != nil {
		return monitor.Report{}, false, err
	}
	return rep, true, nil
}

func (r *RedisCache) Set(ctx context.Context, fp string, rep monitor.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, ReportKey(fp), string(b), r.ttl)
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
