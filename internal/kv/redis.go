package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "tgrelay"
	redisScanCount     = 100
	redisTxMaxRetries  = 16
)

// RedisStore keeps each key as a plain string value under "<prefix>:<key>".
// Update uses WATCH/MULTI so a concurrent writer forces a retry instead of
// a lost update.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) redisKey(key string) (string, error) {
	key, err := ValidateKey(key)
	if err != nil {
		return "", err
	}
	return s.prefix + ":" + key, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rk, err := s.redisKey(key)
	if err != nil {
		return nil, false, err
	}
	val, err := s.client.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", rk, err)
	}
	return val, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	rk, err := s.redisKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, rk, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", rk, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	rk, err := s.redisKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, rk).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", rk, err)
	}
	return nil
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	// Key grammar excludes glob metacharacters, so prefix needs no escaping.
	match := s.prefix + ":" + normalizePrefix(prefix) + "*"
	var out []string
	iter := s.client.Scan(ctx, 0, match, redisScanCount).Iterator()
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), s.prefix+":"))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", match, err)
	}
	return dedupeSorted(out), nil
}

func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if _, err := validateUpdate(key, fn); err != nil {
		return err
	}
	rk, err := s.redisKey(key)
	if err != nil {
		return err
	}
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, rk).Bytes()
		exists := true
		if errors.Is(err, redis.Nil) {
			cur, exists = nil, false
		} else if err != nil {
			return err
		}
		next, err := fn(cur, exists)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, rk)
			} else {
				pipe.Set(ctx, rk, next, 0)
			}
			return nil
		})
		return err
	}
	for i := 0; i < redisTxMaxRetries; i++ {
		err := s.client.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis update %s: %w", rk, ErrConflict)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
