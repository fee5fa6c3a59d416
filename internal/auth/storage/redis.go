package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRevokedPrefix = "backmeup:revoked:"

// RedisStore implements the Store interface using Redis, for deployments
// running more than one apiserver instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store instance
func NewRedisStore(addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if prefix == "" {
		prefix = defaultRevokedPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}, nil
}

// Revoke marks a token as revoked for ttl.
func (s *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+token, "1", ttl).Err()
}

// IsRevoked reports whether the token has been revoked.
func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases backend resources.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
