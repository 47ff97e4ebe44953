// Package cache keeps computed dashboard statistics in Redis so the admin
// landing page does not rerun its aggregate queries on every load.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"hiryo-backoffice/models"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultPrefix = "hiryo:"
	dashboardKey  = "dashboard:stats"
)

// DashboardCache stores the latest DashboardStats under a single key.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string

	hits   int64
	misses int64
}

type Option func(*DashboardCache)

func WithPrefix(prefix string) Option {
	return func(c *DashboardCache) {
		c.prefix = prefix
	}
}

func NewDashboardCache(client *redis.Client, ttl time.Duration, opts ...Option) *DashboardCache {
	c := &DashboardCache{client: client, ttl: ttl, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (c *DashboardCache) key() string {
	return c.prefix + dashboardKey
}

// Get returns the cached stats, or false on a miss.
func (c *DashboardCache) Get(ctx context.Context) (*models.DashboardStats, bool, error) {
	raw, err := c.client.Get(ctx, c.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, nil
	}
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, fmt.Errorf("read dashboard cache: %w", err)
	}

	var st models.DashboardStats
	if err := json.Unmarshal(raw, &st); err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}
	atomic.AddInt64(&c.hits, 1)
	return &st, true, nil
}

func (c *DashboardCache) Set(ctx context.Context, st *models.DashboardStats) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode dashboard stats: %w", err)
	}
	if err := c.client.Set(ctx, c.key(), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write dashboard cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached stats; the next read recomputes them.
func (c *DashboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key()).Err(); err != nil {
		return fmt.Errorf("invalidate dashboard cache: %w", err)
	}
	return nil
}

func (c *DashboardCache) Stats() map[string]int64 {
	return map[string]int64{
		"hits":   atomic.LoadInt64(&c.hits),
		"misses": atomic.LoadInt64(&c.misses),
	}
}
