package cache

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces entries in a shared Redis database.
const keyPrefix = "changelens:response:"

// Redis stores entries as plain string keys with a server-side TTL.
type Redis struct {
	client *redis.Client
	addr   string
	ttl    time.Duration
}

// NewRedis connects lazily to addr, which is host:port or a redis:// URL.
// A zero ttl stores entries without expiry.
func NewRedis(addr string, ttl time.Duration) (*Redis, error) {
	opts, err := redisOptions(addr)
	if err != nil {
		return nil, err
	}
	return &Redis{client: redis.NewClient(opts), addr: opts.Addr, ttl: ttl}, nil
}

func redisOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, errors.WithHint(errors.Wrapf(err, "parsing redis address %q", addr),
				"use host:port or redis://[user:pass@]host:port/db")
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	v, err := r.client.Get(ctx, redisKey(key)).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (r *Redis) Put(ctx context.Context, key, value string) error {
	return errors.Wrap(r.client.Set(ctx, redisKey(key), value, r.ttl).Err(), "redis set")
}

// Clear deletes every entry under the changelens prefix.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return errors.Wrap(err, "redis del")
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "redis scan")
	}
	if len(batch) > 0 {
		return errors.Wrap(r.client.Del(ctx, batch...).Err(), "redis del")
	}
	return nil
}

func (r *Redis) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Backend: "redis", Location: r.addr}
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		stats.Entries++
	}
	return stats, errors.Wrap(iter.Err(), "redis scan")
}

func (r *Redis) Enabled() bool { return true }

// Close releases the connection pool.
func (r *Redis) Close() error { return r.client.Close() }

func redisKey(key string) string { return keyPrefix + HashKey(key) }
