// Package redis keeps session ids in Redis so issued tokens can be revoked.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Config describes the Redis instance holding sessions.
type Config struct {
	Addr     string
	Password string
	DB       int
	// DialTimeout bounds connecting and the startup ping. Session reads and
	// writes sit on the request path, so they share the same budget.
	DialTimeout time.Duration
}

func (c Config) options() *redis.Options {
	timeout := c.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		// a failed session lookup is reported, not retried
		MaxRetries: -1,
	}
}

// Connect opens the client backing SessionStore and pings it once.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := cfg.options()
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
