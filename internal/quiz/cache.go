package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/quiz-studio/internal/domain"
)

const defaultCacheTTL = 30 * time.Second

// PublicListCache keeps the public quiz listing in Redis as one JSON blob.
type PublicListCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewPublicListCache(client *redis.Client, prefix string, ttl time.Duration) *PublicListCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if prefix == "" {
		prefix = "quizstudio"
	}
	return &PublicListCache{client: client, key: prefix + ":cache:public_quizzes", ttl: ttl}
}

// Get returns the cached listing; ok is false on a miss.
func (c *PublicListCache) Get(ctx context.Context) (quizzes []domain.Quiz, ok bool, err error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := json.Unmarshal(data, &quizzes); err != nil {
		return nil, false, err
	}
	return quizzes, true, nil
}

func (c *PublicListCache) Set(ctx context.Context, quizzes []domain.Quiz) error {
	data, err := json.Marshal(quizzes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, data, c.ttl).Err()
}

// Invalidate drops the cached listing.
func (c *PublicListCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
