package favstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coindeck/coindeck_backend/internal/core/ports"
)

// DefaultRedisTTL keeps idle favorite sets around for three months before
// Redis reclaims them.
const DefaultRedisTTL = 90 * 24 * time.Hour

// RedisStore persists favorite sets as JSON blobs in Redis, one key per
// client.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed favorites store. A non-positive ttl
// falls back to DefaultRedisTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func favoritesKey(clientID string) string {
	return fmt.Sprintf("favorites:%s", clientID)
}

// LoadFavorites returns the stored ids for a client, or an empty slice on a
// cache miss.
func (s *RedisStore) LoadFavorites(ctx context.Context, clientID string) ([]string, error) {
	data, err := s.client.Get(ctx, favoritesKey(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	return ids, nil
}

// SaveFavorites replaces the stored ids for a client and refreshes the TTL.
func (s *RedisStore) SaveFavorites(ctx context.Context, clientID string, coinIDs []string) error {
	data, err := json.Marshal(coinIDs)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	return s.client.Set(ctx, favoritesKey(clientID), data, s.ttl).Err()
}

var _ ports.FavoriteRepository = (*RedisStore)(nil)
