package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis for multi-instance deployments.
// Entries are stored without expiry; the cache is cleared explicitly.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type RedisConfig struct {
	Prefix string
}

func NewRedisStore(client *redis.Client, config RedisConfig) *RedisStore {
	prefix := config.Prefix
	if prefix == "" {
		prefix = "mediagen"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(namespace, fingerprint string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, namespace, fingerprint)
}

func (s *RedisStore) Get(ctx context.Context, namespace, fingerprint string) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, s.key(namespace, fingerprint)).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Damaged entry: report a miss so it gets regenerated.
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s *RedisStore) Put(ctx context.Context, namespace string, entry Entry, force bool) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	key := s.key(namespace, entry.Fingerprint)
	if force {
		if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
			return fmt.Errorf("redis set failed: %w", err)
		}
		return nil
	}
	// First write wins; a concurrent duplicate Put becomes a no-op.
	if err := s.client.SetNX(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, namespace string) (int, error) {
	pattern := s.prefix + ":" + namespace + ":*"
	if namespace == "" {
		pattern = s.prefix + ":*"
	}

	count := 0
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return count, fmt.Errorf("redis del failed: %w", err)
		}
		count++
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("redis scan failed: %w", err)
	}
	return count, nil
}

// Ping checks that the Redis connection is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
