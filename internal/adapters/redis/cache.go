package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"stayfinder/internal/adapters/observability"
)

// Cache is a tagged TTL cache on Redis. Every tag is a SET under "tag:<name>"
// holding the member keys; invalidating a tag deletes the members and the set
// itself. Tag sets carry no TTL of their own; deleting a member that already
// expired is a no-op, so stale set entries are harmless and get swept on the
// next invalidation.
type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return &Cache{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("redis", "hit")
	return true, json.Unmarshal(v, dst)
}

func (r *Cache) SetTagged(ctx context.Context, key string, v any, tags []string, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pipe := r.c.TxPipeline()
	pipe.Set(ctx, key, b, ttl)
	for _, t := range tags {
		pipe.SAdd(ctx, tagKey(t), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	return nil
}

func (r *Cache) InvalidateTag(ctx context.Context, tag string) error {
	keys, err := r.c.SMembers(ctx, tagKey(tag)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := r.c.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, tagKey(tag))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	observability.ObserveCache("redis", "del")
	return nil
}

func tagKey(tag string) string { return "tag:" + tag }
