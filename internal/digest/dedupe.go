package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedupe guards against sending the same digest email twice. The bus is
// at-least-once, so a crash between a send and its step-output write can
// redeliver an event; the SETNX key makes the second send a no-op.
type Dedupe struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupe creates a Dedupe with the given key lifetime; default 48h
func NewDedupe(client *redis.Client, ttl time.Duration) *Dedupe {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Dedupe{client: client, ttl: ttl}
}

// Acquire claims a send slot; false means the email already went out
func (d *Dedupe) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe acquire %s: %w", key, err)
	}
	return ok, nil
}

// Release frees a claimed slot after a failed send so a retry can send
func (d *Dedupe) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("dedupe release %s: %w", key, err)
	}
	return nil
}

func dedupeKey(flow, userID, date string) string {
	return fmt.Sprintf("digest:%s:%s:%s", flow, userID, date)
}
