// Package redisx wires the Redis client used for rate limiting and
// submission idempotency.
package redisx

import (
	"context"
	"fmt"
	"time"

	"merchant-desk/internal/config"

	"github.com/redis/go-redis/v9"
)

// New connects to Redis and verifies the connection
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}

	return client, nil
}
