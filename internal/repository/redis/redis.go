package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// noPoster marks a lookup that TMDB answered without a poster.
const noPoster = "-"

type PosterCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPosterCache(client *redis.Client, ttl time.Duration) *PosterCache {
	return &PosterCache{
		client: client,
		ttl:    ttl,
	}
}

func posterKey(title string, year int) string {
	// key format: "poster:{title}:{year}"
	return fmt.Sprintf("poster:%s:%d", strings.ToLower(strings.TrimSpace(title)), year)
}

// Get returns the cached poster URL. found is false on a cache miss; an empty
// url with found set means the movie is known to have no poster.
func (c *PosterCache) Get(ctx context.Context, title string, year int) (url string, found bool, err error) {
	val, err := c.client.Get(ctx, posterKey(title, year)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get poster from Redis: %w", err)
	}

	if val == noPoster {
		return "", true, nil
	}
	return val, true, nil
}

func (c *PosterCache) Set(ctx context.Context, title string, year int, url string) error {
	val := url
	if val == "" {
		val = noPoster
	}

	if err := c.client.Set(ctx, posterKey(title, year), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store poster in Redis: %w", err)
	}
	return nil
}
