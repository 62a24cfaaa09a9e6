package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
)

// Redis stores values under prefixed keys. A non-zero ttl expires every key it sets.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Backend = (*Redis)(nil)

func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) Namespace(ns string) Backend {
	return &Redis{client: r.client, prefix: join(r.prefix, ns), ttl: r.ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNoValue
		}
		return nil, errors.Wrapf(err, "redis get %s", key)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return errors.Wrapf(r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(), "redis set %s", key)
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	return errors.Wrapf(r.client.Del(ctx, r.prefix+key).Err(), "redis del %s", key)
}

// Clear deletes every key under the prefix. An empty prefix would wipe the whole database, so it is refused.
func (r *Redis) Clear(ctx context.Context) error {
	if r.prefix == "" {
		return errors.New("refusing to clear redis without a key prefix")
	}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return errors.Wrap(err, "redis scan")
		}
		if len(keys) > 0 {
			if err = r.client.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, "redis del")
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "redis ping")
}
