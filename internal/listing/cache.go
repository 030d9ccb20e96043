package listing

import (
	"context"
	"errors"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(id int64) string {
	return "listing:" + strconv.FormatInt(id, 10)
}

// Get returns nil, nil on a cache miss.
func (c *RedisCache) Get(ctx context.Context, id int64) (*Listing, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var l Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *RedisCache) Set(ctx context.Context, l *Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(l.ID), data, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, id int64) error {
	return c.client.Del(ctx, cacheKey(id)).Err()
}
