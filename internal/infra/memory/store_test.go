package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizhost-service/internal/domain"
)

func TestFinishAttemptIsConditional(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	attempt := domain.Attempt{ID: "a1", QuizPostID: "c1", StartedAt: time.Now()}
	if err := store.CreateAttempt(ctx, attempt); err != nil {
		t.Fatalf("create: %v", err)
	}

	answers := []domain.Answer{{ID: "ans1", AttemptID: "a1", QuestionID: "q1", ChoiceID: "ch1"}}
	if err := store.FinishAttempt(ctx, "a1", 1, 1, time.Now(), answers); err != nil {
		t.Fatalf("finish: %v", err)
	}

	err := store.FinishAttempt(ctx, "a1", 0, 1, time.Now(), nil)
	if !errors.Is(err, domain.ErrAttemptFinished) {
		t.Fatalf("second finish: got %v, want ErrAttemptFinished", err)
	}

	got, err := store.GetAttempt(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 1 {
		t.Errorf("score overwritten by rejected finish: %d", got.Score)
	}
	if rows := store.Answers("a1"); len(rows) != 1 {
		t.Errorf("answer rows = %d, want 1", len(rows))
	}
}

func TestFinishUnknownAttempt(t *testing.T) {
	store := NewStore()
	err := store.FinishAttempt(context.Background(), "missing", 0, 0, time.Now(), nil)
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("got %v, want ErrAttemptNotFound", err)
	}
}

func TestQuizReadsAreOrdered(t *testing.T) {
	store := NewStore()
	store.Seed(domain.QuizPost{
		ID:       "c1",
		Status:   domain.StatusPublished,
		Slug:     "ordered",
		IsActive: true,
		Questions: []domain.Question{
			{ID: "q2", Order: 1, Choices: []domain.Choice{{ID: "ch3", Order: 1}, {ID: "ch2", Order: 0}}},
			{ID: "q1", Order: 0},
		},
	})

	quiz, err := store.PublishedQuizBySlug(context.Background(), "ordered")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if quiz.Questions[0].ID != "q1" || quiz.Questions[1].ID != "q2" {
		t.Errorf("questions out of order: %+v", quiz.Questions)
	}
	if quiz.Questions[1].Choices[0].ID != "ch2" {
		t.Errorf("choices out of order: %+v", quiz.Questions[1].Choices)
	}
}

func TestGetQuestionDoesNotMutateStoredChoices(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	store.Seed(domain.QuizPost{
		ID: "c1",
		Questions: []domain.Question{
			{ID: "q1", QuizPostID: "c1", Choices: []domain.Choice{
				{ID: "ch2", QuestionID: "q1", Order: 1},
				{ID: "ch1", QuestionID: "q1", Order: 0},
			}},
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				q, err := store.GetQuestion(ctx, "q1")
				if err != nil {
					t.Errorf("get: %v", err)
					return
				}
				if q.Choices[0].ID != "ch1" || q.Choices[1].ID != "ch2" {
					t.Errorf("choices out of order: %+v", q.Choices)
					return
				}
			}
		}()
	}
	wg.Wait()

	// The returned slice must not alias the stored one.
	q, err := store.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	q.Choices[0].Text = "scribbled"
	again, err := store.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Choices[0].Text != "" {
		t.Errorf("stored choice mutated through returned slice: %+v", again.Choices[0])
	}
}

func TestCreateScoreEntryRejectsDuplicateAttempt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := domain.ScoreEntry{ID: "s1", QuizPostID: "c1", AttemptID: "a1", PlayerName: "Dana", CreatedAt: time.Now()}
	if err := store.CreateScoreEntry(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := domain.ScoreEntry{ID: "s2", QuizPostID: "c1", AttemptID: "a1", PlayerName: "Dana again", CreatedAt: time.Now()}
	if err := store.CreateScoreEntry(ctx, dup); !errors.Is(err, domain.ErrScoreAlreadySaved) {
		t.Fatalf("duplicate: got %v, want ErrScoreAlreadySaved", err)
	}

	entries, err := store.ListScoreEntries(ctx, "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "s1" {
		t.Errorf("entries = %+v, want only s1", entries)
	}
}

func TestInactiveQuizIsNotServed(t *testing.T) {
	store := NewStore()
	store.Seed(domain.QuizPost{ID: "c1", Status: domain.StatusPublished, Slug: "hidden", IsActive: false})

	_, err := store.PublishedQuizBySlug(context.Background(), "hidden")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("got %v, want ErrQuizNotFound", err)
	}
}
