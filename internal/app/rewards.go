package app

import (
	"context"
	"log"
	"time"

	"quizhost-service/internal/domain"
)

// Ledger records reward deltas in the external central-account system.
type Ledger interface {
	RecordCompletion(ctx context.Context, ev domain.RewardEvent) error
}

// RewardPolicy holds the flat grants for a quiz completion. Tokens are
// one per correctly answered question, plus PerfectBonus at exactly 100%.
type RewardPolicy struct {
	Coins        int
	XP           int
	PerfectBonus int
}

// DefaultRewardPolicy mirrors the platform-wide completion grants.
func DefaultRewardPolicy() RewardPolicy {
	return RewardPolicy{Coins: 100, XP: 50, PerfectBonus: 2}
}

// Event builds the ledger delta for a first completion.
func (p RewardPolicy) Event(accountID, quizID, attemptID string, result ScoreResult, at time.Time) domain.RewardEvent {
	tokens := result.Correct
	perfect := result.Perfect()
	if perfect {
		tokens += p.PerfectBonus
	}
	return domain.RewardEvent{
		AccountID: accountID,
		QuizID:    quizID,
		AttemptID: attemptID,
		Score:     result.Score,
		MaxScore:  result.MaxScore,
		Correct:   result.Correct,
		Coins:     p.Coins,
		Tokens:    tokens,
		XP:        p.XP,
		Perfect:   perfect,
		CreatedAt: at,
	}
}

// RewardWorker drains the reward queue and delivers events to the ledger
// with bounded retries. Delivery failures are logged and never surfaced;
// the attempt that earned the reward is already durable by the time an
// event reaches the queue.
type RewardWorker struct {
	queue      RewardQueue
	ledger     Ledger
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
}

func NewRewardWorker(queue RewardQueue, ledger Ledger, maxRetries int, backoff time.Duration) *RewardWorker {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &RewardWorker{
		queue:      queue,
		ledger:     ledger,
		maxRetries: maxRetries,
		backoff:    backoff,
		timeout:    10 * time.Second,
	}
}

// Run blocks until ctx is canceled.
func (w *RewardWorker) Run(ctx context.Context) {
	for {
		ev, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("reward worker: dequeue: %v", err)
			continue
		}
		w.deliver(ctx, ev)
	}
}

func (w *RewardWorker) deliver(ctx context.Context, ev domain.RewardEvent) {
	delay := w.backoff
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		err := w.ledger.RecordCompletion(callCtx, ev)
		cancel()
		if err == nil {
			log.Printf("reward worker: granted %d coins %d tokens %d xp to account %s for quiz %s",
				ev.Coins, ev.Tokens, ev.XP, ev.AccountID, ev.QuizID)
			return
		}
		log.Printf("reward worker: deliver attempt %d/%d for attempt %s: %v", attempt, w.maxRetries, ev.AttemptID, err)

		if attempt == w.maxRetries {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		delay *= 2
	}
	log.Printf("reward worker: dropping reward event for attempt %s after %d tries", ev.AttemptID, w.maxRetries)
}
