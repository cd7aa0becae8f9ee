// Package storage holds the key-value client storage that backs the session
// token and the conversation list. Drivers: memory, file, redis, postgres.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Domenick1991/wingquest/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrKeyNotFound = errors.New("storage: key not found")

type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Open builds the driver named in cfg. The returned close func releases
// driver resources and is never nil.
func Open(ctx context.Context, cfg config.Config) (Storage, func(), error) {
	switch cfg.Storage.Driver {
	case "", config.StorageMemory:
		return NewMemoryStorage(), func() {}, nil
	case config.StorageFile:
		s, err := NewFileStorage(cfg.Storage.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.StorageRedis:
		s := NewRedisStorage(cfg.Redis, cfg.Storage.KeyPrefix, cfg.Storage.TTL())
		return s, func() { _ = s.Close() }, nil
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		s := NewPGStorage(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var _ Storage = (*MemoryStorage)(nil)
