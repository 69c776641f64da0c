package memory

import (
	"context"

	"quizhost-service/internal/domain"
)

// RewardQueue is a channel-backed reward queue for tests and single-node
// deployments without redis.
type RewardQueue struct {
	ch chan domain.RewardEvent
}

func NewRewardQueue(capacity int) *RewardQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &RewardQueue{ch: make(chan domain.RewardEvent, capacity)}
}

func (q *RewardQueue) Enqueue(ctx context.Context, ev domain.RewardEvent) error {
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *RewardQueue) Dequeue(ctx context.Context) (domain.RewardEvent, error) {
	select {
	case ev := <-q.ch:
		return ev, nil
	case <-ctx.Done():
		return domain.RewardEvent{}, ctx.Err()
	}
}

// Len reports the number of queued events, for tests.
func (q *RewardQueue) Len() int {
	return len(q.ch)
}
