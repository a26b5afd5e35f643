package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Cache keeps reservation payloads, idempotent replies and dedup markers.
type Cache struct{ RDB *redis.Client }

func (c *Cache) Record(ctx context.Context, id int64) ([]byte, bool, error) {
	return c.get(ctx, fmt.Sprintf(KeyReservation, id))
}

func (c *Cache) SetRecord(ctx context.Context, id int64, b []byte) error {
	return c.RDB.Set(ctx, fmt.Sprintf(KeyReservation, id), b, TTLRecordCache).Err()
}

func (c *Cache) DropRecord(ctx context.Context, id int64) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyReservation, id)).Err()
}

// Reply returns the stored response for an idempotency key. Keys are scoped
// to the reservation they were first used on.
func (c *Cache) Reply(ctx context.Context, id int64, idemKey string) ([]byte, bool, error) {
	return c.get(ctx, fmt.Sprintf(KeyIdemUpdate, id, idemKey))
}

func (c *Cache) SetReply(ctx context.Context, id int64, idemKey string, b []byte) error {
	return c.RDB.Set(ctx, fmt.Sprintf(KeyIdemUpdate, id, idemKey), b, TTLIdempotency).Err()
}

// Claim marks an event as processed by service. It reports false when
// another worker got there first.
func (c *Cache) Claim(ctx context.Context, service, eventID string) (bool, error) {
	return c.RDB.SetNX(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Result()
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Release drops a claim so a failed event can be retried.
func (c *Cache) Release(ctx context.Context, service, eventID string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Err()
}
