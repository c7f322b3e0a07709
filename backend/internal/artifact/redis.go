package artifact

import (
	"context"
	"errors"
	"time"

	apperrors "friendmap/backend/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "friendmap:graph:" // friendmap:graph:{id}
	// DefaultTTL keeps pages for a week
	DefaultTTL = 7 * 24 * time.Hour
)

// RedisStore keeps pages in Redis with an expiry
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. A non-positive ttl falls back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return keyPrefix + id
}

// Put stores the page under id
func (s *RedisStore) Put(ctx context.Context, id string, page []byte) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(id), page, s.ttl).Err(); err != nil {
		return apperrors.NewStorageFailed("put artifact", err)
	}
	return nil
}

// Get returns the page stored under id
func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	page, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewArtifactNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewStorageFailed("get artifact", err)
	}
	return page, nil
}
