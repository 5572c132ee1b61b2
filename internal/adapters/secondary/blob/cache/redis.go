// Package cache decorates a blob store with a Redis existence cache, so
// dedup checks on hot content skip the backend round trip.
package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"model-registry/internal/core/ports/output"
)

const keyPrefix = "registry:blob:"

type Config struct {
	URL string
	TTL time.Duration
}

// Store caches only existence, never content: model payloads are large and
// Redis memory is not. Cache failures degrade to the backend (fail-open).
type Store struct {
	backend ports.BlobStore
	client  *redis.Client
	ttl     time.Duration
}

func New(backend ports.BlobStore, cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{backend: backend, client: client, ttl: cfg.TTL}, nil
}

func (s *Store) cacheKey(key string) string {
	return keyPrefix + key
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	val, err := s.client.Exists(ctx, s.cacheKey(key)).Result()
	if err != nil {
		log.WithError(err).Warn("redis existence check failed, falling back to backend")
	} else if val > 0 {
		return true, nil
	}

	found, err := s.backend.Has(ctx, key)
	if err != nil {
		return false, err
	}
	if found {
		if err := s.client.Set(ctx, s.cacheKey(key), "1", s.ttl).Err(); err != nil {
			log.WithError(err).Warn("redis cache fill failed")
		}
	}
	return found, nil
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	written, err := s.backend.Put(ctx, key, r)
	if err != nil {
		return 0, err
	}
	if err := s.client.Set(ctx, s.cacheKey(key), "1", s.ttl).Err(); err != nil {
		log.WithError(err).Warn("redis cache fill failed")
	}
	return written, nil
}

// Open passes through; content is never cached.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Open(ctx, key)
}

// Delete invalidates before deleting so a stale positive entry cannot
// outlive the bytes.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.cacheKey(key)).Err(); err != nil {
		log.WithError(err).Warn("redis cache invalidation failed")
	}
	return s.backend.Delete(ctx, key)
}
