// Package redis publishes order events on a Redis pub/sub channel.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"tableorders/pkg/events"
)

// Client is the subset of the go-redis client used by Publisher.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// Publisher sends events as JSON to a single channel.
type Publisher struct {
	client  Client
	channel string
}

// New connects to addr and verifies the connection with a PING.
func New(ctx context.Context, addr, channel string) (*Publisher, error) {
	c := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewWithClient(c, channel), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c Client, channel string) *Publisher {
	return &Publisher{client: c, channel: channel}
}

// Publish implements events.Publisher.
func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", p.channel, err)
	}
	return nil
}

// Close releases the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
