// Package tokenstore persists the bearer token between runs.
//
// A Store holds at most one token under the well-known key "authToken". An
// empty token from Get means logged out. Set always replaces the whole value;
// a cancelled or failed Set leaves the previous token in place.
package tokenstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/five82/journey/internal/config"
)

// Key names the persisted token in every backend.
const Key = "authToken"

// Store is the key-value collaborator owning the auth token.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*File)(nil)
	_ Store = (*Redis)(nil)
)

// Memory keeps the token in process memory.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns a Memory store seeded with token.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Get(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// Open builds the backend selected in cfg.
func Open(cfg config.TokenStore) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", config.BackendFile:
		return NewFile(cfg.Path), nil
	case config.BackendMemory:
		return NewMemory(""), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedis(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown token store backend %q", cfg.Backend)
	}
}
