package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend string
	// Dir is the root of the file backend.
	Dir      string
	Redis    RedisConfig
	Postgres PostgresConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type PostgresConfig struct {
	DSN string
}

// Open builds the configured backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		addr := strings.TrimSpace(cfg.Redis.Addr)
		if addr == "" {
			return nil, fmt.Errorf("store.redis.addr is required for the redis backend")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", addr, err)
		}
		return NewRedisStore(client, cfg.Redis.Prefix), nil
	case BackendPostgres:
		dsn := strings.TrimSpace(cfg.Postgres.DSN)
		if dsn == "" {
			return nil, fmt.Errorf("store.postgres.dsn is required for the postgres backend")
		}
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func dedupeSorted(items []string) []string {
	if len(items) == 0 {
		return items
	}
	sort.Strings(items)
	out := items[:1]
	for _, item := range items[1:] {
		if item != out[len(out)-1] {
			out = append(out, item)
		}
	}
	return out
}
