// Package redis is the shared go-redis handle behind the ticket store, the
// notification mirror, the lifecycle worker and the response cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 2 * time.Second

type Options struct {
	Addr     string
	Password string
	DB       int
	// PoolSize 0 keeps the go-redis default.
	PoolSize    int
	DialTimeout time.Duration
}

// Client embeds *redis.Client so callers use the go-redis API directly.
type Client struct {
	*redis.Client
}

// Open connects and pings once; an unreachable server fails startup.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	c := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.DialTimeout,
	})
	client := &Client{Client: c}
	if err := client.Ready(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return client, nil
}

// Wrap adopts an existing go-redis client, e.g. a redismock client in tests.
func Wrap(c *redis.Client) *Client {
	return &Client{Client: c}
}

// Ready pings with a short deadline. A nil client means redis is disabled and
// is always ready.
func (c *Client) Ready(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.Options().Addr, err)
	}
	return nil
}
