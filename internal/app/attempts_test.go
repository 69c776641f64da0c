package app_test

import (
	"context"
	"errors"
	"testing"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/identity"
	"quizhost-service/internal/infra/memory"
)

type staticResolver struct {
	accountID string
}

func (r *staticResolver) ResolveAccountID(context.Context, string, string) (string, error) {
	return r.accountID, nil
}

func seededStore() *memory.Store {
	store := memory.NewStore()
	store.Seed(domain.QuizPost{
		ID:       "c1",
		Title:    "Capitals",
		Status:   domain.StatusPublished,
		Slug:     "capitals",
		IsActive: true,
		Questions: []domain.Question{
			{
				ID:         "q1",
				QuizPostID: "c1",
				Text:       "Capital of France?",
				Order:      0,
				Points:     1,
				Choices: []domain.Choice{
					{ID: "ch1", QuestionID: "q1", Text: "Paris", Order: 0, IsCorrect: true},
					{ID: "ch2", QuestionID: "q1", Text: "London", Order: 1},
					{ID: "ch3", QuestionID: "q1", Text: "Berlin", Order: 2},
				},
			},
		},
	})
	return store
}

func newAttemptService(store *memory.Store, queue app.RewardQueue, accountID string) *app.AttemptService {
	hasher := identity.NewHasher("device-pepper", "email-pepper")
	var resolver app.AccountResolver
	if accountID != "" {
		resolver = &staticResolver{accountID: accountID}
	}
	return app.NewAttemptService(store, hasher, resolver, queue, app.DefaultRewardPolicy())
}

func TestStartCreatesPendingAttempt(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := newAttemptService(store, memory.NewRewardQueue(8), "")

	attempt, err := svc.Start(ctx, app.StartParams{
		Slug:       "capitals",
		PlayerName: "Alice",
		DeviceID:   "device-1",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if attempt.Finished() {
		t.Fatalf("new attempt must be pending")
	}
	if attempt.Score != 0 || attempt.MaxScore != 0 {
		t.Fatalf("new attempt must carry zero scores, got %+v", attempt)
	}
	if attempt.DeviceHash == "" || attempt.DeviceHash == "device-1" {
		t.Fatalf("device id must be stored hashed, got %q", attempt.DeviceHash)
	}
}

func TestStartUnknownSlugFails(t *testing.T) {
	svc := newAttemptService(seededStore(), memory.NewRewardQueue(8), "")
	_, err := svc.Start(context.Background(), app.StartParams{Slug: "nope", PlayerName: "Alice"})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestSubmitScoresAndPersistsAnswers(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := newAttemptService(store, memory.NewRewardQueue(8), "")

	attempt, _ := svc.Start(ctx, app.StartParams{Slug: "capitals", PlayerName: "Alice", DeviceID: "d1"})
	result, err := svc.Submit(ctx, attempt.ID, "capitals", []domain.SubmittedAnswer{
		{QuestionID: "q1", ChoiceID: "ch1"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 1 || result.MaxScore != 1 {
		t.Fatalf("got %+v, want 1/1", result)
	}

	stored, err := svc.Result(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if !stored.Finished() || stored.Score != 1 {
		t.Fatalf("attempt not finished correctly: %+v", stored)
	}
	if rows := store.Answers(attempt.ID); len(rows) != 1 || rows[0].ChoiceID != "ch1" {
		t.Fatalf("unexpected answer rows: %+v", rows)
	}
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := newAttemptService(store, memory.NewRewardQueue(8), "")

	attempt, _ := svc.Start(ctx, app.StartParams{Slug: "capitals", PlayerName: "Alice"})
	if _, err := svc.Submit(ctx, attempt.ID, "capitals", nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(ctx, attempt.ID, "capitals", nil)
	if !errors.Is(err, domain.ErrAttemptFinished) {
		t.Fatalf("expected ErrAttemptFinished, got %v", err)
	}
	if rows := store.Answers(attempt.ID); len(rows) != 0 {
		t.Fatalf("second submit must not write answers, got %+v", rows)
	}
}

func TestSubmitAgainstWrongQuizFails(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	store.Seed(domain.QuizPost{
		ID: "c2", Title: "Other", Status: domain.StatusPublished, Slug: "other", IsActive: true,
		Questions: []domain.Question{{
			ID: "q9", QuizPostID: "c2", Text: "?", Points: 1,
			Choices: []domain.Choice{{ID: "ch9", IsCorrect: true}, {ID: "ch10"}},
		}},
	})
	svc := newAttemptService(store, memory.NewRewardQueue(8), "")

	attempt, _ := svc.Start(ctx, app.StartParams{Slug: "capitals", PlayerName: "Alice"})
	_, err := svc.Submit(ctx, attempt.ID, "other", nil)
	if !errors.Is(err, domain.ErrQuizMismatch) {
		t.Fatalf("expected ErrQuizMismatch, got %v", err)
	}
}

func TestFirstCompletionQueuesRewardOnce(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	queue := memory.NewRewardQueue(8)
	svc := newAttemptService(store, queue, "acc-1")

	first, _ := svc.Start(ctx, app.StartParams{Slug: "capitals", PlayerName: "Alice", Email: "alice@example.com"})
	result, err := svc.Submit(ctx, first.ID, "capitals", []domain.SubmittedAnswer{{QuestionID: "q1", ChoiceID: "ch1"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.AlreadyCompletedBefore {
		t.Fatalf("first completion flagged as repeat")
	}
	if queue.Len() != 1 {
		t.Fatalf("expected 1 queued reward, got %d", queue.Len())
	}

	second, _ := svc.Start(ctx, app.StartParams{Slug: "capitals", PlayerName: "Alice", Email: "alice@example.com"})
	result, err = svc.Submit(ctx, second.ID, "capitals", []domain.SubmittedAnswer{{QuestionID: "q1", ChoiceID: "ch2"}})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !result.AlreadyCompletedBefore {
		t.Fatalf("repeat completion not flagged")
	}
	if queue.Len() != 1 {
		t.Fatalf("repeat completion queued a reward, queue=%d", queue.Len())
	}
}

func TestAnonymousPlayNeverQueuesReward(t *testing.T) {
	ctx := context.Background()
	queue := memory.NewRewardQueue(8)
	svc := newAttemptService(seededStore(), queue, "")

	attempt, _ := svc.Start(ctx, app.StartParams{Slug: "capitals", PlayerName: "Ghost"})
	if _, err := svc.Submit(ctx, attempt.ID, "capitals", []domain.SubmittedAnswer{{QuestionID: "q1", ChoiceID: "ch1"}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if queue.Len() != 0 {
		t.Fatalf("anonymous attempt queued a reward")
	}
}

func TestSaveScoreOncePerAttempt(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := newAttemptService(store, memory.NewRewardQueue(8), "")

	attempt, _ := svc.Start(ctx, app.StartParams{Slug: "capitals", PlayerName: "Alice", DeviceID: "d1"})

	if _, err := svc.SaveScore(ctx, attempt.ID, "Alice", "alice@example.com"); !errors.Is(err, domain.ErrAttemptPending) {
		t.Fatalf("saving a pending attempt should fail, got %v", err)
	}

	if _, err := svc.Submit(ctx, attempt.ID, "capitals", []domain.SubmittedAnswer{{QuestionID: "q1", ChoiceID: "ch1"}}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entry, err := svc.SaveScore(ctx, attempt.ID, "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("save score: %v", err)
	}
	if entry.Score != 1 || entry.EmailHash == "" || entry.Email != "alice@example.com" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if _, err := svc.SaveScore(ctx, attempt.ID, "Alice", "alice@example.com"); !errors.Is(err, domain.ErrScoreAlreadySaved) {
		t.Fatalf("expected ErrScoreAlreadySaved, got %v", err)
	}
}
