package credstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps credentials in a single Redis hash so that every
// process sharing the same prefix sees one signed-in user.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) Get(ctx context.Context, field string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (r *RedisStore) Set(ctx context.Context, field, value string) error {
	return r.rdb.HSet(ctx, r.key, field, value).Err()
}

// Clear deletes the hash; DEL on a missing key succeeds.
func (r *RedisStore) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
