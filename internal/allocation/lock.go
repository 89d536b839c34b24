package allocation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker serializes allocation commits per DCA. Capacity sub-scoring reads
// a live active-case count, so the read-then-write around an allocation
// must not interleave for the same DCA.
type Locker interface {
	WithLock(ctx context.Context, dcaID string, fn func() error) error
}

// RedisLocker implements Locker with a SET NX PX lease per DCA. Lock
// acquisition failure falls through to running unlocked with a warning: the
// capacity cap is soft and losing a race only risks a one-case overshoot.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker builds the locker.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

const lockRetryDelay = 50 * time.Millisecond

// WithLock runs fn holding the per-DCA lease.
func (l *RedisLocker) WithLock(ctx context.Context, dcaID string, fn func() error) error {
	if l.client == nil {
		return fn()
	}
	key := "alloc:lock:" + dcaID
	token := uuid.NewString()

	deadline := time.Now().Add(l.ttl)
	acquired := false
	for time.Now().Before(deadline) {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.logger.Warn("allocation lock unavailable, proceeding unlocked",
				zap.String("dca_id", dcaID), zap.Error(err))
			return fn()
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	if !acquired {
		l.logger.Warn("allocation lock contended past deadline, proceeding unlocked",
			zap.String("dca_id", dcaID))
		return fn()
	}

	defer func() {
		// release only our own lease
		const release = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		if err := l.client.Eval(ctx, release, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn("allocation lock release failed", zap.String("dca_id", dcaID), zap.Error(err))
		}
	}()
	return fn()
}

// NoopLocker runs the callback directly. Used in tests and when redis is
// not configured.
type NoopLocker struct{}

// WithLock implements Locker.
func (NoopLocker) WithLock(_ context.Context, _ string, fn func() error) error {
	return fn()
}
