package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"movieReco/pkg/config"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned when no Redis host is configured.
var ErrDisabled = errors.New("redis disabled")

const pingTimeout = 3 * time.Second

// Open dials the poster cache. The client is only returned once it answers a ping.
func Open(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.RedisHost == "" {
		return nil, ErrDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     8,
		MinIdleConns: 1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return client, nil
}

func Close(client *redis.Client) {
	if client == nil {
		return
	}
	_ = client.Close()
}
