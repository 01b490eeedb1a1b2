package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mycok/uResolve/countdown"
)

// countDownScript decrements the latch without dropping below zero and
// publishes a release notification once the count reaches zero. It returns
// -1 for unknown latches.
var countDownScript = goredis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return -1
end
v = tonumber(v)
if v > 0 then
	v = redis.call('DECR', KEYS[1])
end
if v == 0 then
	redis.call('PUBLISH', KEYS[2], '0')
end
return v
`)

// Static and compile-time check to ensure RedisLatch implements
// countdown.Latch interface.
var _ countdown.Latch = (*RedisLatch)(nil)

// RedisLatch implements countdown latches shared by every process that
// talks to the same redis server. Waiters subscribe to a per-latch channel
// that is notified when the count reaches zero or the latch is deleted.
type RedisLatch struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisLatch connects to the redis server described by redisURL.
func NewRedisLatch(redisURL string) (*RedisLatch, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisLatchWithClient(rdb, "ur"), nil
}

// NewRedisLatchWithClient returns a RedisLatch that uses an existing client
// and namespaces all keys with prefix.
func NewRedisLatchWithClient(rdb goredis.UniversalClient, prefix string) *RedisLatch {
	return &RedisLatch{rdb: rdb, prefix: prefix}
}

// Close terminates the connection to the redis server.
func (l *RedisLatch) Close() error {
	return l.rdb.Close()
}

// Init sets the count of the latch for graphID.
func (l *RedisLatch) Init(ctx context.Context, graphID uuid.UUID, count int64) error {
	if count < 0 {
		return fmt.Errorf("init latch %s: %w", graphID, countdown.ErrInvalidCount)
	}

	_, err := l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, l.countKey(graphID), count, 0)
		if count == 0 {
			p.Publish(ctx, l.channel(graphID), "0")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("init latch %s: %w", graphID, err)
	}

	return nil
}

// CountDown decrements the latch count.
func (l *RedisLatch) CountDown(ctx context.Context, graphID uuid.UUID) (int64, error) {
	remaining, err := countDownScript.Run(
		ctx, l.rdb, []string{l.countKey(graphID), l.channel(graphID)},
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("count down latch %s: %w", graphID, err)
	}

	if remaining < 0 {
		return 0, fmt.Errorf("count down latch %s: %w", graphID, countdown.ErrUnknownLatch)
	}

	return remaining, nil
}

// Remaining returns the current count of the latch.
func (l *RedisLatch) Remaining(ctx context.Context, graphID uuid.UUID) (int64, error) {
	remaining, err := l.rdb.Get(ctx, l.countKey(graphID)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, fmt.Errorf("latch %s: %w", graphID, countdown.ErrUnknownLatch)
		}

		return 0, fmt.Errorf("latch %s: %w", graphID, err)
	}

	return remaining, nil
}

// Wait blocks until the latch count reaches zero.
func (l *RedisLatch) Wait(ctx context.Context, graphID uuid.UUID) error {
	sub := l.rdb.Subscribe(ctx, l.channel(graphID))
	defer func() { _ = sub.Close() }()

	// Make sure the subscription is active before the count is checked so
	// that a release in between cannot be missed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("wait for latch %s: %w", graphID, err)
	}

	notifyCh := sub.Channel()
	for {
		remaining, err := l.Remaining(ctx, graphID)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}

		if remaining == 0 {
			return nil
		}

		select {
		case _, ok := <-notifyCh:
			if !ok {
				return fmt.Errorf("wait for latch %s: subscription closed", graphID)
			}
		case <-ctx.Done():
			return fmt.Errorf("wait for latch %s: %w", graphID, ctx.Err())
		}
	}
}

// Delete removes the latch and notifies its waiters.
func (l *RedisLatch) Delete(ctx context.Context, graphID uuid.UUID) error {
	_, err := l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, l.countKey(graphID))
		p.Publish(ctx, l.channel(graphID), "deleted")
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete latch %s: %w", graphID, err)
	}

	return nil
}

func (l *RedisLatch) countKey(graphID uuid.UUID) string {
	return fmt.Sprintf("%s:{%s}:countdown", l.prefix, graphID)
}

func (l *RedisLatch) channel(graphID uuid.UUID) string {
	return fmt.Sprintf("%s:{%s}:countdown:released", l.prefix, graphID)
}
