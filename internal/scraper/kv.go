// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package scraper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound reports a missing key in any KV backend.
var ErrKeyNotFound = errors.New("key not found")

// KV is the small slice of Redis the scraper runtime needs. The production
// backend is go-redis; tests use the in-memory implementation below.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisKV adapts a go-redis client to the KV interface.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV builds a KV backed by the given Redis URL.
func NewRedisKV(url string) (*RedisKV, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisKV{client: redis.NewClient(opts)}, nil
}

// Client exposes the underlying go-redis client for health checks.
func (r *RedisKV) Client() *redis.Client {
	return r.client
}

// Close releases the underlying connection pool.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return value, err
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return r.client.IncrBy(ctx, key, delta).Result()
}

func (r *RedisKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

// MemoryKV is an in-memory KV for tests and for running without Redis.
// TTLs are honored on read. Safe for concurrent use.
type MemoryKV struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		return "", ErrKeyNotFound
	}
	value, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryKV) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		delete(m.values, key)
	}
	current := int64(0)
	if raw, ok := m.values[key]; ok {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %q is not an integer: %w", key, err)
		}
		current = parsed
	}
	current += delta
	m.values[key] = strconv.FormatInt(current, 10)
	return current, nil
}

func (m *MemoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[key]; ok {
		m.expires[key] = time.Now().Add(ttl)
	}
	return nil
}

// expired reports and clears an expired key. Caller holds the lock.
func (m *MemoryKV) expired(key string) bool {
	deadline, ok := m.expires[key]
	if !ok || time.Now().Before(deadline) {
		return false
	}
	delete(m.values, key)
	delete(m.expires, key)
	return true
}
