package app

import (
	"context"
	"time"

	"quizhost-service/internal/domain"
)

const maxChoicesPerQuestion = 6

// AuthoringStore is the persistence surface the admin use cases need.
// GetQuiz returns the quiz with its questions and their choices, both
// ordered ascending by their order field (stable for ties).
type AuthoringStore interface {
	SlugChecker

	CreateQuiz(ctx context.Context, quiz domain.QuizPost) error
	GetQuiz(ctx context.Context, id string) (domain.QuizPost, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizPost, error)
	UpdateQuiz(ctx context.Context, quiz domain.QuizPost) error
	DeleteQuiz(ctx context.Context, id string) error

	CreateQuestion(ctx context.Context, q domain.Question) error
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	UpdateQuestion(ctx context.Context, q domain.Question) error
	DeleteQuestion(ctx context.Context, id string) error
	SetQuestionOrder(ctx context.Context, questionID string, order int) error

	CreateChoice(ctx context.Context, c domain.Choice) error
	GetChoice(ctx context.Context, id string) (domain.Choice, error)
	UpdateChoice(ctx context.Context, c domain.Choice) error
	DeleteChoice(ctx context.Context, id string) error
	ClearCorrectChoices(ctx context.Context, questionID string) error
}

// QuizMetaUpdate carries the optional fields of a quiz meta edit.
type QuizMetaUpdate struct {
	Title       *string
	Description *string
	Theme       map[string]string
}

// QuestionUpdate carries the optional fields of a question edit.
type QuestionUpdate struct {
	Text   *string
	Points *int
}

// ChoiceUpdate carries the optional fields of a choice edit.
type ChoiceUpdate struct {
	Text      *string
	IsCorrect *bool
}

// AuthoringService implements the admin quiz-editing use cases.
type AuthoringService struct {
	store AuthoringStore
	now   func() time.Time
}

func NewAuthoringService(store AuthoringStore) *AuthoringService {
	return &AuthoringService{store: store, now: time.Now}
}

// CreateQuiz inserts a new draft with an empty theme.
func (s *AuthoringService) CreateQuiz(ctx context.Context, title, authorEmail string) (domain.QuizPost, error) {
	now := s.now()
	quiz := domain.QuizPost{
		ID:          domain.NewID(domain.PrefixQuiz),
		Title:       title,
		Status:      domain.StatusDraft,
		Theme:       map[string]string{},
		AuthorEmail: authorEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.QuizPost{}, err
	}
	return quiz, nil
}

func (s *AuthoringService) GetQuiz(ctx context.Context, id string) (domain.QuizPost, error) {
	return s.store.GetQuiz(ctx, id)
}

func (s *AuthoringService) ListQuizzes(ctx context.Context) ([]domain.QuizPost, error) {
	return s.store.ListQuizzes(ctx)
}

// UpdateQuizMeta edits title, description, and theme. Changing the title
// of a published quiz regenerates its slug, excluding its own prior slug
// from the collision check.
func (s *AuthoringService) UpdateQuizMeta(ctx context.Context, quizID string, upd QuizMetaUpdate) (domain.QuizPost, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizPost{}, err
	}

	if upd.Title != nil && *upd.Title != quiz.Title {
		quiz.Title = *upd.Title
		if quiz.Status == domain.StatusPublished {
			slug, err := UniqueSlug(ctx, s.store, quiz.Title, quiz.ID)
			if err != nil {
				return domain.QuizPost{}, err
			}
			quiz.Slug = slug
		}
	}
	if upd.Description != nil {
		quiz.Description = *upd.Description
	}
	if upd.Theme != nil {
		quiz.Theme = upd.Theme
	}
	quiz.UpdatedAt = s.now()

	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return domain.QuizPost{}, err
	}
	return quiz, nil
}

// DeleteQuiz removes the quiz and cascades to its questions and choices.
// Historical attempts and answers reference it weakly and are kept.
func (s *AuthoringService) DeleteQuiz(ctx context.Context, quizID string) error {
	return s.store.DeleteQuiz(ctx, quizID)
}

// Publish validates the quiz, assigns a unique slug, and moves it to
// PUBLISHED. A non-empty validation list means the quiz was not changed.
func (s *AuthoringService) Publish(ctx context.Context, quizID string) (string, []domain.ValidationError, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return "", nil, err
	}

	if verrs := ValidateForPublish(quiz); len(verrs) > 0 {
		return "", verrs, nil
	}

	slug, err := UniqueSlug(ctx, s.store, quiz.Title, quiz.ID)
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	quiz.Status = domain.StatusPublished
	quiz.Slug = slug
	quiz.IsActive = true
	quiz.PublishedAt = &now
	quiz.UpdatedAt = now
	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return "", nil, err
	}
	return slug, nil, nil
}

// Unpublish returns the quiz to DRAFT. The slug is retained so a
// republish under the same title keeps the same public URL.
func (s *AuthoringService) Unpublish(ctx context.Context, quizID string) error {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	quiz.Status = domain.StatusDraft
	quiz.IsActive = false
	quiz.UpdatedAt = s.now()
	return s.store.UpdateQuiz(ctx, quiz)
}

// SetActive toggles public visibility of a published quiz.
func (s *AuthoringService) SetActive(ctx context.Context, quizID string, active bool) error {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	quiz.IsActive = active
	quiz.UpdatedAt = s.now()
	return s.store.UpdateQuiz(ctx, quiz)
}

// AddQuestion appends a single-choice question worth one point at the end
// of the quiz's order sequence.
func (s *AuthoringService) AddQuestion(ctx context.Context, quizID, text string) (domain.Question, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}

	maxOrder := -1
	for _, q := range quiz.Questions {
		if q.Order > maxOrder {
			maxOrder = q.Order
		}
	}

	question := domain.Question{
		ID:         domain.NewID(domain.PrefixQuestion),
		QuizPostID: quizID,
		Text:       text,
		Order:      maxOrder + 1,
		Points:     1,
		Type:       domain.TypeSingleChoice,
	}
	if err := s.store.CreateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *AuthoringService) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	return s.store.GetQuestion(ctx, questionID)
}

func (s *AuthoringService) UpdateQuestion(ctx context.Context, questionID string, upd QuestionUpdate) (domain.Question, error) {
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if upd.Text != nil {
		question.Text = *upd.Text
	}
	if upd.Points != nil && *upd.Points >= 1 {
		question.Points = *upd.Points
	}
	if err := s.store.UpdateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *AuthoringService) DeleteQuestion(ctx context.Context, questionID string) error {
	if _, err := s.store.GetQuestion(ctx, questionID); err != nil {
		return err
	}
	return s.store.DeleteQuestion(ctx, questionID)
}

// ReorderQuestions rewrites the order field to match the given id list.
func (s *AuthoringService) ReorderQuestions(ctx context.Context, quizID string, questionIDs []string) error {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	for i, id := range questionIDs {
		if err := s.store.SetQuestionOrder(ctx, id, i); err != nil {
			return err
		}
	}
	return nil
}

// AddChoice appends a non-correct choice, enforcing the six-choice cap.
func (s *AuthoringService) AddChoice(ctx context.Context, questionID, text string) (domain.Choice, error) {
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Choice{}, err
	}
	if len(question.Choices) >= maxChoicesPerQuestion {
		return domain.Choice{}, domain.ErrChoiceLimit
	}

	maxOrder := -1
	for _, c := range question.Choices {
		if c.Order > maxOrder {
			maxOrder = c.Order
		}
	}

	choice := domain.Choice{
		ID:         domain.NewID(domain.PrefixChoice),
		QuestionID: questionID,
		Text:       text,
		Order:      maxOrder + 1,
	}
	if err := s.store.CreateChoice(ctx, choice); err != nil {
		return domain.Choice{}, err
	}
	return choice, nil
}

func (s *AuthoringService) GetChoice(ctx context.Context, choiceID string) (domain.Choice, error) {
	return s.store.GetChoice(ctx, choiceID)
}

// UpdateChoice edits a choice. Marking it correct unmarks its siblings
// first so the one-correct-choice invariant holds for published quizzes.
func (s *AuthoringService) UpdateChoice(ctx context.Context, choiceID string, upd ChoiceUpdate) (domain.Choice, error) {
	choice, err := s.store.GetChoice(ctx, choiceID)
	if err != nil {
		return domain.Choice{}, err
	}
	if upd.IsCorrect != nil && *upd.IsCorrect {
		if err := s.store.ClearCorrectChoices(ctx, choice.QuestionID); err != nil {
			return domain.Choice{}, err
		}
	}
	if upd.Text != nil {
		choice.Text = *upd.Text
	}
	if upd.IsCorrect != nil {
		choice.IsCorrect = *upd.IsCorrect
	}
	if err := s.store.UpdateChoice(ctx, choice); err != nil {
		return domain.Choice{}, err
	}
	return choice, nil
}

func (s *AuthoringService) DeleteChoice(ctx context.Context, choiceID string) error {
	if _, err := s.store.GetChoice(ctx, choiceID); err != nil {
		return err
	}
	return s.store.DeleteChoice(ctx, choiceID)
}
