// Package cache is a small JSON read-through cache on top of Redis.
// A nil *Store is valid and caches nothing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "storefront:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, ttl), nil
}

var defaultStore *Store

func SetDefault(s *Store) {
	defaultStore = s
}

func Default() *Store {
	return defaultStore
}

func (s *Store) enabled() bool {
	return s != nil && s.client != nil
}

// Get decodes the cached value for key into dst and reports whether it was found.
func (s *Store) Get(ctx context.Context, key string, dst interface{}) bool {
	if !s.enabled() {
		return false
	}
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		zap.L().Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) Set(ctx context.Context, key string, value interface{}) {
	if !s.enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		zap.L().Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		zap.L().Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) Delete(ctx context.Context, keys ...string) {
	if !s.enabled() || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		zap.L().Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Version returns the current generation of a namespace. Keys built with
// VersionedKey go stale together when the namespace is bumped.
func (s *Store) Version(ctx context.Context, namespace string) int64 {
	if !s.enabled() {
		return 0
	}
	v, err := s.client.Get(ctx, keyPrefix+"version:"+namespace).Int64()
	if err != nil {
		return 0
	}
	return v
}

func (s *Store) Bump(ctx context.Context, namespace string) {
	if !s.enabled() {
		return
	}
	if err := s.client.Incr(ctx, keyPrefix+"version:"+namespace).Err(); err != nil {
		zap.L().Warn("cache version bump failed", zap.String("namespace", namespace), zap.Error(err))
	}
}

func (s *Store) VersionedKey(ctx context.Context, namespace, key string) string {
	return fmt.Sprintf("%s:v%d:%s", namespace, s.Version(ctx, namespace), key)
}

func (s *Store) Close() error {
	if !s.enabled() {
		return nil
	}
	return s.client.Close()
}
