package snapshot

import (
	"context"
	"time"

	"github.com/novamart/storefront-backend/internal/cart"
	pkgredis "github.com/novamart/storefront-backend/pkg/redis"
)

type redisCommands interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartSnapshotKey(cartKey string) string
}

// RedisStore is the primary snapshot backend. Entries expire after the
// configured TTL so abandoned carts eventually disappear.
type RedisStore struct {
	client redisCommands
	ttl    time.Duration
}

func NewRedisStore(client *pkgredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, key string, items []cart.LineItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.client.CartSnapshotKey(key), string(data), s.ttl)
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]cart.LineItem, error) {
	data, err := s.client.Get(ctx, s.client.CartSnapshotKey(key))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return decodeItems([]byte(data))
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.client.CartSnapshotKey(key))
}
