package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSink publishes alerts on a pub/sub channel so the web layer's
// notification widget can pick them up.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(addr, password, channel string) *RedisSink {
	return &RedisSink{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
		channel: channel,
	}
}

func (s *RedisSink) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("notify: redis publish: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
