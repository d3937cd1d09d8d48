package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures [NewRedisCache].
type RedisConfig struct {
	Addr     string // host:port
	Password string
	DB       int
	// Prefix is prepended to every key, e.g. "lanegraph:".
	Prefix string
	// Timeout bounds each command. Defaults to 2s.
	Timeout time.Duration
}

// RedisCache stores entries in Redis with native expiry.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis cache: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	c := &RedisCache{client: client, prefix: cfg.Prefix, timeout: cfg.Timeout}

	if err := c.do(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis cache: ping %s: %w", cfg.Addr, err)
	}
	return c, nil
}

// Get retrieves a value from Redis. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.do(ctx, func(ctx context.Context) error {
		b, err := c.client.Get(ctx, c.prefix+key).Bytes()
		data = b
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. A ttl of 0 keeps the key until it is deleted.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
	})
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.client.Del(ctx, c.prefix+key).Err()
	})
}

// Clear deletes every key under the cache prefix and returns how many were
// removed. It scans rather than using KEYS so a large shared Redis is not
// blocked.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	if c.prefix == "" {
		return 0, errors.New("redis cache: refusing to clear without a key prefix")
	}
	removed := 0
	var cursor uint64
	for {
		var keys []string
		err := c.do(ctx, func(ctx context.Context) error {
			var err error
			keys, cursor, err = c.client.Scan(ctx, cursor, c.prefix+"*", 500).Result()
			return err
		})
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			var n int64
			err := c.do(ctx, func(ctx context.Context) error {
				var err error
				n, err = c.client.Del(ctx, keys...).Result()
				return err
			})
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// do runs one command with a per-attempt timeout, retrying network failures.
func (c *RedisCache) do(ctx context.Context, fn func(context.Context) error) error {
	return RetryWithBackoff(ctx, func() error {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		err := fn(cctx)
		if isNetworkError(err) {
			return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		return err
	})
}

func isNetworkError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
