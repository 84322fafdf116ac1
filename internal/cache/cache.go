// Package cache keeps recently served forms close to the public endpoints.
// Forms are cached as JSON in a Backend, either Redis or process memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// DefaultTTL bounds how stale a cached form may get.
const DefaultTTL = 2 * time.Minute

const keyPrefix = "formsuite:form:"

// Backend stores opaque values with a time to live.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Redis adapts a go-redis client.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis %s: %w", addr, err)
	}
	return NewRedis(client), nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Memory is an in-process Backend.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemory builds an empty Memory backend. now may be nil.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{entries: make(map[string]memoryEntry), now: now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// Source is the form lookup being cached.
type Source interface {
	GetForm(ctx context.Context, id string) (model.Form, error)
}

// Forms caches a Source. Backend failures degrade to a direct lookup.
type Forms struct {
	source  Source
	backend Backend
	ttl     time.Duration
}

// NewForms wraps source. ttl <= 0 uses DefaultTTL.
func NewForms(source Source, backend Backend, ttl time.Duration) *Forms {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Forms{source: source, backend: backend, ttl: ttl}
}

// GetForm serves from the cache when possible.
func (f *Forms) GetForm(ctx context.Context, id string) (model.Form, error) {
	key := keyPrefix + id
	if raw, ok, err := f.backend.Get(ctx, key); err == nil && ok {
		var form model.Form
		if json.Unmarshal(raw, &form) == nil {
			return form, nil
		}
	}
	form, err := f.source.GetForm(ctx, id)
	if err != nil {
		return model.Form{}, err
	}
	if raw, err := json.Marshal(form); err == nil {
		_ = f.backend.Set(ctx, key, raw, f.ttl)
	}
	return form, nil
}

// Invalidate drops cached copies of the given forms.
func (f *Forms) Invalidate(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, keyPrefix+id)
	}
	if err := f.backend.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}
