// Package cache memoises class reports by the content hash of their input
// batch. Entries are never invalidated by time; a TTL only bounds storage.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/workbook/internal/analytics"
	"github.com/abhisek/workbook/internal/logger"
)

const namespace = "workbook:report"

// ReportCache stores reports by fingerprint.
type ReportCache interface {
	Get(ctx context.Context, key string) (analytics.Report, bool, error)
	Set(ctx context.Context, key string, r analytics.Report) error
}

// Memo returns the cached report for key or computes and stores it. Cache
// failures are logged and fall through to compute.
func Memo(ctx context.Context, c ReportCache, key string, log *logger.Logger, compute func() (analytics.Report, error)) (analytics.Report, bool, error) {
	log = logger.OrNop(log)
	if c == nil {
		r, err := compute()
		return r, false, err
	}
	if r, ok, err := c.Get(ctx, key); err != nil {
		log.Warn("report cache read failed", "key", key, "error", err)
	} else if ok {
		return r, true, nil
	}

	r, err := compute()
	if err != nil {
		return r, false, err
	}
	if err := c.Set(ctx, key, r); err != nil {
		log.Warn("report cache write failed", "key", key, "error", err)
	}
	return r, false, nil
}

// Redis keeps reports in redis under the workbook:report namespace.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// RedisOptions builds client options for a single node.
func RedisOptions(addr, password string, db int) *redis.Options {
	return &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (analytics.Report, bool, error) {
	raw, err := r.client.Get(ctx, namespace+":"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return analytics.Report{}, false, nil
	}
	if err != nil {
		return analytics.Report{}, false, err
	}
	var rep analytics.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return analytics.Report{}, false, err
	}
	return rep, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, rep analytics.Report) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, namespace+":"+key, raw, r.ttl).Err()
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Memory is a bounded in-process cache that evicts the oldest entry.
type Memory struct {
	mu      sync.Mutex
	max     int
	order   []string
	entries map[string]analytics.Report
}

func NewMemory(max int) *Memory {
	if max < 1 {
		max = 1
	}
	return &Memory{max: max, entries: map[string]analytics.Report{}}
}

func (m *Memory) Get(_ context.Context, key string) (analytics.Report, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[key]
	return r, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, r analytics.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = r
	for len(m.order) > m.max {
		delete(m.entries, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (analytics.Report, bool, error) {
	return analytics.Report{}, false, nil
}

func (Nop) Set(context.Context, string, analytics.Report) error { return nil }
