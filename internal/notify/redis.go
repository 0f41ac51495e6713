package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes notifications on a Redis pub/sub channel for the push gateway
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a sink publishing to channel
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// Notify implements Sink
func (s *RedisSink) Notify(ctx context.Context, n Notification) error {
	payload, err := n.Encode()
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification to redis: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (s *RedisSink) Close() error {
	return s.client.Close()
}
