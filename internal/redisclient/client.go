package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ClaimPayment claims a gateway payment ID for commit. Returns false when
// another verify call already holds the claim; the durable dedupe remains
// the unique gateway_payment_id lookup in the global table.
func (c *Client) ClaimPayment(ctx context.Context, paymentID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("payment-claim:%s", paymentID), "1", ttl).Result()
}

// ReleasePayment drops a claim so a failed commit can be retried.
func (c *Client) ReleasePayment(ctx context.Context, paymentID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("payment-claim:%s", paymentID)).Err()
}
