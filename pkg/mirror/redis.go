package mirror

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// redisNamespace prefixes every key the mirror writes so Clear can find them
// without touching unrelated data in a shared instance.
const redisNamespace = "errship:"

// RedisConfig configures a Redis-backed mirror.
type RedisConfig struct {
	// Addr is the host:port of the Redis server
	Addr string

	// Password is the optional server password
	Password string

	// DB is the logical database number
	DB int

	// StorageKey is the key under which the snapshot blob lives
	StorageKey string

	// DialTimeout bounds connection establishment (default 5s)
	DialTimeout time.Duration
}

// RedisMirror implements Mirror on a Redis instance. Each SetItem is one
// SET command, which Redis applies atomically.
type RedisMirror struct {
	rdb        *goredis.Client
	storageKey string
}

// NewRedisMirror connects to Redis and verifies the connection with a ping.
func NewRedisMirror(cfg RedisConfig) (*RedisMirror, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis mirror: addr is required")
	}
	if cfg.StorageKey == "" {
		return nil, fmt.Errorf("redis mirror: storage key is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisMirror{rdb: rdb, storageKey: cfg.StorageKey}, nil
}

// StorageKey returns the key under which the snapshot blob lives.
func (m *RedisMirror) StorageKey() string {
	return m.storageKey
}

// GetItem retrieves the blob stored under key.
// Returns (nil, nil) if no blob exists.
func (m *RedisMirror) GetItem(ctx context.Context, key string) ([]byte, error) {
	blob, err := m.rdb.Get(ctx, redisNamespace+key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return blob, nil
}

// SetItem stores blob under key, replacing any previous value.
func (m *RedisMirror) SetItem(ctx context.Context, key string, blob []byte) error {
	if err := m.rdb.Set(ctx, redisNamespace+key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// RemoveItem deletes the blob stored under key.
// Removing an absent key is not an error.
func (m *RedisMirror) RemoveItem(ctx context.Context, key string) error {
	if err := m.rdb.Del(ctx, redisNamespace+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear deletes every key in the mirror's namespace.
func (m *RedisMirror) Clear(ctx context.Context) error {
	iter := m.rdb.Scan(ctx, 0, redisNamespace+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := m.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (m *RedisMirror) Close() error {
	return m.rdb.Close()
}
