package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis implements the transient blob cache used to stage uploaded files
// ahead of extraction. Entries carry a TTL; nothing here is durable.
type Redis struct {
	rdb *goredis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, fmt.Errorf("blob not found: %s", key)
	}
	return data, err
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func (r *Redis) Close() error { return r.rdb.Close() }
