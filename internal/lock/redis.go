package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the distributed lock.
type RedisOptions struct {
	// Expiry bounds how long a crashed holder can block the key.
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 100 * time.Millisecond,
	}
}

// Redis is a Locker shared by every process that talks to the same Redis,
// built on the RedLock algorithm.
type Redis struct {
	rs   *redsync.Redsync
	opts RedisOptions
}

func NewRedis(client redis.UniversalClient, opts RedisOptions) *Redis {
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultRedisOptions().Expiry
	}
	if opts.Tries < 1 {
		opts.Tries = DefaultRedisOptions().Tries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = DefaultRedisOptions().RetryDelay
	}

	return &Redis{
		rs:   redsync.New(goredis.NewPool(client)),
		opts: opts,
	}
}

func (l *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := validate(key, fn); err != nil {
		return err
	}

	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	err := mutex.LockContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	defer func() {
		ok, unlockErr := mutex.UnlockContext(context.WithoutCancel(ctx))
		if unlockErr != nil {
			slog.Error("failed to release lock", "error", unlockErr, "key", key)
			return
		}
		if !ok {
			slog.Warn("lock was not held or already expired", "key", key)
		}
	}()

	return fn(ctx)
}
