package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const RedisKeyPrefix = "moove:config:"

// RedisStore keeps one hash per component: moove:config:<component> -> {name: value}.
type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, component, name string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, RedisKeyPrefix+component, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s/%s: %w", component, name, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, component, name, value string) error {
	if err := s.rdb.HSet(ctx, RedisKeyPrefix+component, name, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s/%s: %w", component, name, err)
	}
	return nil
}

func (s *RedisStore) Unset(ctx context.Context, component, name string) error {
	if err := s.rdb.HDel(ctx, RedisKeyPrefix+component, name).Err(); err != nil {
		return fmt.Errorf("redis hdel %s/%s: %w", component, name, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, component string) (map[string]string, error) {
	res, err := s.rdb.HGetAll(ctx, RedisKeyPrefix+component).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", component, err)
	}
	return res, nil
}

func (s *RedisStore) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
