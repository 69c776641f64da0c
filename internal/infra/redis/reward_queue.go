package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"quizhost-service/internal/domain"
)

const rewardQueueKey = "rewards:pending"

// RewardQueue is a Redis-list reward queue. Events survive process
// restarts, and multiple workers can drain the same list.
type RewardQueue struct {
	client *redis.Client
}

func NewRewardQueue(client *redis.Client) *RewardQueue {
	return &RewardQueue{client: client}
}

func (q *RewardQueue) Enqueue(ctx context.Context, ev domain.RewardEvent) error {
	encoded, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, rewardQueueKey, encoded).Err()
}

// Dequeue blocks until an event is available or the context is canceled.
// The pop timeout is kept short so cancellation is observed promptly.
func (q *RewardQueue) Dequeue(ctx context.Context) (domain.RewardEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.RewardEvent{}, err
		}

		values, err := q.client.BRPop(ctx, time.Second, rewardQueueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return domain.RewardEvent{}, err
		}
		// BRPop returns [key, value].
		var ev domain.RewardEvent
		if err := json.Unmarshal([]byte(values[1]), &ev); err != nil {
			return domain.RewardEvent{}, err
		}
		return ev, nil
	}
}

// Len reports the pending backlog size.
func (q *RewardQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, rewardQueueKey).Result()
}
