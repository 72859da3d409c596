package i

import "context"

// SortedQueue is a score-ordered set of string members shared across processes.
type SortedQueue interface {
	// Enqueue adds member with score, refreshing the queue expiration when it has none.
	Enqueue(ctx context.Context, queueKey string, score float64, member string) error

	// DequeTops removes and returns the `amount` lowest-scored members.
	// Nothing is removed when fewer than `amount` members are queued.
	DequeTops(ctx context.Context, queueKey string, amount int64) ([]string, error)

	// TrimTo removes the lowest-scored members until at most `keep` remain and returns them.
	// Counting and removal happen as one step, so concurrent trims never cut below `keep`.
	TrimTo(ctx context.Context, queueKey string, keep int64) ([]string, error)

	// Count returns the number of queued members.
	Count(ctx context.Context, queueKey string) int64

	// Latest returns up to `amount` highest-scored members, highest first, without removing them.
	Latest(ctx context.Context, queueKey string, amount int64) ([]string, error)
}
