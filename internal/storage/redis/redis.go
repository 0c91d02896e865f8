package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blocklist is the revocation store. Logout adds the token's jti here,
// the auth gate refuses any token whose jti is present. Entries live at
// least as long as the token itself, after that expiry handles it.
type Blocklist struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*Blocklist, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Blocklist{
		client: client,
	}, nil
}

func (b *Blocklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	const op = "storage.redis.Add"

	if err := b.client.Set(ctx, key(jti), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (b *Blocklist) Contains(ctx context.Context, jti string) (bool, error) {
	const op = "storage.redis.Contains"

	n, err := b.client.Exists(ctx, key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (b *Blocklist) Close() {
	b.client.Close()
}

func key(jti string) string {
	return "blocklist:" + jti
}
