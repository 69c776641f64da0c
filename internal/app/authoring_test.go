package app_test

import (
	"context"
	"errors"
	"testing"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func buildDraft(t *testing.T, svc *app.AuthoringService) domain.QuizPost {
	t.Helper()
	ctx := context.Background()
	quiz, err := svc.CreateQuiz(ctx, "Capitals", "admin@example.com")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	question, err := svc.AddQuestion(ctx, quiz.ID, "Capital of France?")
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	paris, err := svc.AddChoice(ctx, question.ID, "Paris")
	if err != nil {
		t.Fatalf("add choice: %v", err)
	}
	if _, err := svc.AddChoice(ctx, question.ID, "London"); err != nil {
		t.Fatalf("add choice: %v", err)
	}
	if _, err := svc.UpdateChoice(ctx, paris.ID, app.ChoiceUpdate{IsCorrect: boolPtr(true)}); err != nil {
		t.Fatalf("mark correct: %v", err)
	}
	quiz, err = svc.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	return quiz
}

func TestPublishHappyPath(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := app.NewAuthoringService(store)
	quiz := buildDraft(t, svc)

	slug, verrs, err := svc.Publish(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(verrs) != 0 {
		t.Fatalf("unexpected validation errors: %+v", verrs)
	}
	if slug != "capitals" {
		t.Fatalf("slug = %q, want capitals", slug)
	}

	published, err := store.PublishedQuizBySlug(ctx, "capitals")
	if err != nil {
		t.Fatalf("published quiz not servable: %v", err)
	}
	if published.Status != domain.StatusPublished || !published.IsActive {
		t.Fatalf("unexpected state: %+v", published)
	}
}

func TestPublishRejectsInvalidQuiz(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAuthoringService(memory.NewStore())

	quiz, _ := svc.CreateQuiz(ctx, "Empty", "admin@example.com")
	_, verrs, err := svc.Publish(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(verrs) == 0 {
		t.Fatalf("expected validation errors for an empty quiz")
	}

	got, _ := svc.GetQuiz(ctx, quiz.ID)
	if got.Status != domain.StatusDraft {
		t.Fatalf("failed publish must not change status")
	}
}

func TestTitleChangeOnPublishedQuizRegeneratesSlug(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAuthoringService(memory.NewStore())
	quiz := buildDraft(t, svc)

	if _, _, err := svc.Publish(ctx, quiz.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	updated, err := svc.UpdateQuizMeta(ctx, quiz.ID, app.QuizMetaUpdate{Title: strPtr("World Capitals")})
	if err != nil {
		t.Fatalf("update meta: %v", err)
	}
	if updated.Slug != "world-capitals" {
		t.Fatalf("slug = %q, want world-capitals", updated.Slug)
	}
}

func TestRepublishKeepsOwnSlug(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAuthoringService(memory.NewStore())
	quiz := buildDraft(t, svc)

	first, _, err := svc.Publish(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := svc.Unpublish(ctx, quiz.ID); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	second, _, err := svc.Publish(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if first != second {
		t.Fatalf("republish changed slug: %q -> %q", first, second)
	}
}

func TestChoiceCapAndExclusiveCorrect(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAuthoringService(memory.NewStore())

	quiz, _ := svc.CreateQuiz(ctx, "Caps", "admin@example.com")
	question, _ := svc.AddQuestion(ctx, quiz.ID, "Pick one")

	var last domain.Choice
	for i := 0; i < 6; i++ {
		var err error
		last, err = svc.AddChoice(ctx, question.ID, "option")
		if err != nil {
			t.Fatalf("add choice %d: %v", i, err)
		}
	}
	if _, err := svc.AddChoice(ctx, question.ID, "one too many"); !errors.Is(err, domain.ErrChoiceLimit) {
		t.Fatalf("expected ErrChoiceLimit, got %v", err)
	}

	got, _ := svc.GetQuiz(ctx, quiz.ID)
	first := got.Questions[0].Choices[0]
	if _, err := svc.UpdateChoice(ctx, first.ID, app.ChoiceUpdate{IsCorrect: boolPtr(true)}); err != nil {
		t.Fatalf("mark first correct: %v", err)
	}
	if _, err := svc.UpdateChoice(ctx, last.ID, app.ChoiceUpdate{IsCorrect: boolPtr(true)}); err != nil {
		t.Fatalf("mark last correct: %v", err)
	}

	got, _ = svc.GetQuiz(ctx, quiz.ID)
	correct := 0
	for _, c := range got.Questions[0].Choices {
		if c.IsCorrect {
			correct++
			if c.ID != last.ID {
				t.Fatalf("wrong choice flagged correct: %+v", c)
			}
		}
	}
	if correct != 1 {
		t.Fatalf("expected exactly 1 correct choice, got %d", correct)
	}
}

func TestReorderQuestions(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAuthoringService(memory.NewStore())

	quiz, _ := svc.CreateQuiz(ctx, "Ordered", "admin@example.com")
	q1, _ := svc.AddQuestion(ctx, quiz.ID, "first")
	q2, _ := svc.AddQuestion(ctx, quiz.ID, "second")
	q3, _ := svc.AddQuestion(ctx, quiz.ID, "third")

	if err := svc.ReorderQuestions(ctx, quiz.ID, []string{q3.ID, q1.ID, q2.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got, _ := svc.GetQuiz(ctx, quiz.ID)
	wantOrder := []string{q3.ID, q1.ID, q2.ID}
	for i, q := range got.Questions {
		if q.ID != wantOrder[i] {
			t.Fatalf("position %d = %s, want %s", i, q.ID, wantOrder[i])
		}
	}
}

func TestUpdateQuestionPoints(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAuthoringService(memory.NewStore())

	quiz, _ := svc.CreateQuiz(ctx, "Weighted", "admin@example.com")
	question, _ := svc.AddQuestion(ctx, quiz.ID, "hard one")

	updated, err := svc.UpdateQuestion(ctx, question.ID, app.QuestionUpdate{Points: intPtr(5)})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	if updated.Points != 5 {
		t.Fatalf("points = %d, want 5", updated.Points)
	}

	// Zero and negative point values are ignored, the default stands.
	updated, err = svc.UpdateQuestion(ctx, question.ID, app.QuestionUpdate{Points: intPtr(0)})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	if updated.Points != 5 {
		t.Fatalf("invalid points overwrote value: %d", updated.Points)
	}
}

func TestDeleteQuizCascades(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := app.NewAuthoringService(store)
	quiz := buildDraft(t, svc)

	if err := svc.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetQuiz(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
