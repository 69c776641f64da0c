package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func publishedQuiz() domain.QuizPost {
	now := time.Now()
	return domain.QuizPost{
		ID:          "c1",
		Title:       "Capitals",
		Status:      domain.StatusPublished,
		Slug:        "capitals",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: &now,
		Questions: []domain.Question{
			{
				ID: "q1", QuizPostID: "c1", Text: "Capital of France?", Points: 1, Type: domain.TypeSingleChoice,
				Choices: []domain.Choice{
					{ID: "ch1", QuestionID: "q1", Text: "Paris", IsCorrect: true},
					{ID: "ch2", QuestionID: "q1", Text: "London", Order: 1},
				},
			},
		},
	}
}

type countingReader struct {
	store *memory.Store
	calls int
}

func (r *countingReader) PublishedQuizBySlug(ctx context.Context, slug string) (domain.QuizPost, error) {
	r.calls++
	return r.store.PublishedQuizBySlug(ctx, slug)
}

func TestQuizCacheHitsStoreOnce(t *testing.T) {
	_, client := newClient(t)

	store := memory.NewStore()
	store.Seed(publishedQuiz())
	reader := &countingReader{store: store}
	cache := NewQuizCache(client, reader, time.Minute)

	quiz, err := cache.PublishedQuizBySlug(context.Background(), "capitals")
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if quiz.ID != "c1" || len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if reader.calls != 1 {
		t.Fatalf("expected one store read, got %d", reader.calls)
	}

	quiz, err = cache.PublishedQuizBySlug(context.Background(), "capitals")
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if len(quiz.Questions) != 1 || len(quiz.Questions[0].Choices) != 2 {
		t.Fatalf("cached quiz lost structure: %+v", quiz)
	}
	if reader.calls != 1 {
		t.Fatalf("expected cache hit, store reads=%d", reader.calls)
	}
}

func TestQuizCacheMissPropagatesNotFound(t *testing.T) {
	_, client := newClient(t)
	cache := NewQuizCache(client, &countingReader{store: memory.NewStore()}, time.Minute)

	_, err := cache.PublishedQuizBySlug(context.Background(), "missing")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestQuizCacheInvalidateForcesReload(t *testing.T) {
	_, client := newClient(t)

	store := memory.NewStore()
	store.Seed(publishedQuiz())
	reader := &countingReader{store: store}
	cache := NewQuizCache(client, reader, time.Minute)

	_, _ = cache.PublishedQuizBySlug(context.Background(), "capitals")
	cache.Invalidate(context.Background(), "capitals")
	_, _ = cache.PublishedQuizBySlug(context.Background(), "capitals")

	if reader.calls != 2 {
		t.Fatalf("expected reload after invalidation, store reads=%d", reader.calls)
	}
}

func TestQuizCacheExpires(t *testing.T) {
	mr, client := newClient(t)

	store := memory.NewStore()
	store.Seed(publishedQuiz())
	reader := &countingReader{store: store}
	cache := NewQuizCache(client, reader, time.Minute)

	_, _ = cache.PublishedQuizBySlug(context.Background(), "capitals")
	mr.FastForward(2 * time.Minute)
	_, _ = cache.PublishedQuizBySlug(context.Background(), "capitals")

	if reader.calls != 2 {
		t.Fatalf("expected reload after expiry, store reads=%d", reader.calls)
	}
}
