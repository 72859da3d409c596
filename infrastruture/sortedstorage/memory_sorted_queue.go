package sortedstorage

import (
	"context"
	"sort"
	"sync"

	"github.com/beka-birhanu/vinom-lab/service/i"
)

var _ i.SortedQueue = &MemorySortedQueue{}

type scored struct {
	score  float64
	member string
}

// MemorySortedQueue is a process-local SortedQueue for hosts without redis.
// Members never expire.
type MemorySortedQueue struct {
	queues map[string][]scored // Kept ordered by score, then member.
	sync.Mutex
}

// NewMemorySortedQueue creates an empty queue.
func NewMemorySortedQueue() *MemorySortedQueue {
	return &MemorySortedQueue{queues: make(map[string][]scored)}
}

// Enqueue implements i.SortedQueue. Re-adding a member updates its score.
func (q *MemorySortedQueue) Enqueue(_ context.Context, queueKey string, score float64, member string) error {
	q.Lock()
	defer q.Unlock()

	items := q.queues[queueKey]
	for k, it := range items {
		if it.member == member {
			items = append(items[:k], items[k+1:]...)
			break
		}
	}

	pos := sort.Search(len(items), func(k int) bool {
		if items[k].score == score {
			return items[k].member > member
		}
		return items[k].score > score
	})
	items = append(items, scored{})
	copy(items[pos+1:], items[pos:])
	items[pos] = scored{score: score, member: member}
	q.queues[queueKey] = items
	return nil
}

// DequeTops implements i.SortedQueue.
func (q *MemorySortedQueue) DequeTops(_ context.Context, queueKey string, amount int64) ([]string, error) {
	q.Lock()
	defer q.Unlock()

	if amount <= 0 || int64(len(q.queues[queueKey])) < amount {
		return nil, nil
	}
	return q.popLocked(queueKey, amount), nil
}

// TrimTo implements i.SortedQueue.
func (q *MemorySortedQueue) TrimTo(_ context.Context, queueKey string, keep int64) ([]string, error) {
	q.Lock()
	defer q.Unlock()

	overflow := int64(len(q.queues[queueKey])) - max(keep, 0)
	if overflow <= 0 {
		return nil, nil
	}
	return q.popLocked(queueKey, overflow), nil
}

func (q *MemorySortedQueue) popLocked(queueKey string, amount int64) []string {
	items := q.queues[queueKey]
	members := make([]string, 0, amount)
	for _, it := range items[:amount] {
		members = append(members, it.member)
	}
	q.queues[queueKey] = append([]scored(nil), items[amount:]...)
	return members
}

// Count implements i.SortedQueue.
func (q *MemorySortedQueue) Count(_ context.Context, queueKey string) int64 {
	q.Lock()
	defer q.Unlock()
	return int64(len(q.queues[queueKey]))
}

// Latest implements i.SortedQueue.
func (q *MemorySortedQueue) Latest(_ context.Context, queueKey string, amount int64) ([]string, error) {
	q.Lock()
	defer q.Unlock()

	if amount <= 0 {
		return nil, nil
	}
	items := q.queues[queueKey]
	members := make([]string, 0, min(amount, int64(len(items))))
	for k := len(items) - 1; k >= 0 && int64(len(members)) < amount; k-- {
		members = append(members, items[k].member)
	}
	return members, nil
}
