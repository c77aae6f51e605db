package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-character-chat/backend/pkg/config"
)

// Client wraps the go-redis client with the small surface the
// application needs.
type Client struct {
	client *redis.Client
}

// NewClient creates a Redis client from application configuration
func NewClient() *Client {
	cfg := config.Get()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &Client{client: client}
}

// Set stores a value with an expiration
func (r *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value. Returns redis.Nil error when the key is absent.
func (r *Client) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// Del removes a key
func (r *Client) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Ping checks connectivity
func (r *Client) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// IsNotFound reports whether err means the key did not exist
func IsNotFound(err error) bool {
	return err == redis.Nil
}
