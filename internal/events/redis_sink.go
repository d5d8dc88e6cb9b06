package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
)

// RedisOptions configures the redis publisher
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	Channel  string
}

// RedisSink publishes each event as JSON on a pub/sub channel
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink connects and pings the server
func NewRedisSink(opts RedisOptions) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		DB:       opts.DB,
		Password: opts.Password,
		Username: opts.Username,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSink{client: client, channel: opts.Channel}, nil
}

func (s *RedisSink) Name() string { return "redis" }

// Handle publishes the encoded event
func (s *RedisSink) Handle(ctx context.Context, e Event) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the client
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// Encode renders the wire form of an event
func Encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}
