package sortedstorage

import (
	"context"
	"time"

	"github.com/beka-birhanu/vinom-lab/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

var _ i.SortedQueue = &RedisSortedQueue{}

// RedisSortedQueue manages a sorted queue in Redis with TTL support.
type RedisSortedQueue struct {
	client *redis.Client
	locker *redsync.Redsync
	ttl    time.Duration
}

// NewRedisSortedQueue initializes a RedisSortedQueue with the provided Redis client and TTL.
func NewRedisSortedQueue(client *redis.Client, ttlSeconds int) *RedisSortedQueue {
	pool := goredis.NewPool(client)
	return &RedisSortedQueue{
		client: client,
		locker: redsync.New(pool),
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

// Enqueue adds a member to the sorted queue with a given score and sets expiration if necessary.
func (rsq *RedisSortedQueue) Enqueue(ctx context.Context, queueKey string, score float64, member string) error {
	_, err := rsq.client.ZAdd(ctx, queueKey, redis.Z{Score: score, Member: member}).Result()
	if err != nil {
		return err
	}

	// Set expiration only if it's not already set
	ttl, err := rsq.client.TTL(ctx, queueKey).Result()
	if err == nil && ttl == -1 && rsq.ttl > 0 {
		_ = rsq.client.Expire(ctx, queueKey, rsq.ttl).Err()
	}

	return nil
}

// DequeTops removes and retrieves `amount` members with the lowest scores.
// Concurrent trimmers are serialized with a distributed lock.
func (rsq *RedisSortedQueue) DequeTops(ctx context.Context, queueKey string, amount int64) ([]string, error) {
	var members []string
	err := rsq.withTrimLock(ctx, queueKey, func() error {
		if rsq.client.ZCard(ctx, queueKey).Val() < amount {
			return nil
		}
		var err error
		members, err = rsq.popMin(ctx, queueKey, amount)
		return err
	})
	return members, err
}

// TrimTo removes the lowest-scored members beyond `keep` under the same lock as DequeTops.
func (rsq *RedisSortedQueue) TrimTo(ctx context.Context, queueKey string, keep int64) ([]string, error) {
	var members []string
	err := rsq.withTrimLock(ctx, queueKey, func() error {
		overflow := rsq.client.ZCard(ctx, queueKey).Val() - max(keep, 0)
		if overflow <= 0 {
			return nil
		}
		var err error
		members, err = rsq.popMin(ctx, queueKey, overflow)
		return err
	})
	return members, err
}

func (rsq *RedisSortedQueue) withTrimLock(ctx context.Context, queueKey string, f func() error) error {
	mutex := rsq.locker.NewMutex(queueKey + ":trim_lock")
	if err := mutex.LockContext(ctx); err != nil {
		return err
	}
	defer func() {
		_, _ = mutex.UnlockContext(ctx)
	}()
	return f()
}

func (rsq *RedisSortedQueue) popMin(ctx context.Context, queueKey string, amount int64) ([]string, error) {
	popped, err := rsq.client.ZPopMin(ctx, queueKey, amount).Result()
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(popped))
	for _, p := range popped {
		if m, ok := p.Member.(string); ok {
			members = append(members, m)
		}
	}
	return members, nil
}

// Count returns the number of members in the sorted queue.
func (rsq *RedisSortedQueue) Count(ctx context.Context, queueKey string) int64 {
	return rsq.client.ZCard(ctx, queueKey).Val()
}

// Latest returns up to `amount` members with the highest scores, highest first.
func (rsq *RedisSortedQueue) Latest(ctx context.Context, queueKey string, amount int64) ([]string, error) {
	if amount <= 0 {
		return nil, nil
	}
	return rsq.client.ZRevRange(ctx, queueKey, 0, amount-1).Result()
}
