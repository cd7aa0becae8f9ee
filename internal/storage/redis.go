package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/wingquest/config"
	"github.com/redis/go-redis/v9"
)

// RedisStorage stores client keys under a per-deployment prefix so several
// front ends can share one Redis.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStorage(cfg config.RedisConfig, prefix string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, r.ttl).Err()
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func (r *RedisStorage) key(key string) string {
	if r.prefix == "" {
		return "client:" + key
	}
	return r.prefix + ":" + key
}

var _ Storage = (*RedisStorage)(nil)
