package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Backend string // "disk", "memory" or "redis"
	Dir     string // disk backend root
	Prefix  string // redis key prefix
}

// New builds the configured cache backend. redisClient is only consulted
// for the redis backend.
func New(cfg Config, redisClient *redis.Client) (Store, error) {
	switch cfg.Backend {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis cache backend requires a redis client")
		}
		return NewRedisStore(redisClient, RedisConfig{Prefix: cfg.Prefix}), nil
	case "memory":
		return NewMemoryStore(), nil
	case "disk", "":
		return NewDiskStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
