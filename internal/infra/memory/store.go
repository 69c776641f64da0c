// Package memory provides an in-memory store used by unit tests and by
// the server when no postgres is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizhost-service/internal/domain"
)

// Store keeps every collection in maps behind one mutex. It implements
// the app-layer store interfaces with the same semantics the postgres
// store provides, including the conditional attempt finish and the
// all-or-nothing finish+answers write.
type Store struct {
	mu       sync.RWMutex
	quizzes  map[string]domain.QuizPost
	attempts map[string]domain.Attempt
	answers  map[string][]domain.Answer // by attempt id
	scores   map[string]domain.ScoreEntry
	users    map[string]domain.User // by email
}

func NewStore() *Store {
	return &Store{
		quizzes:  make(map[string]domain.QuizPost),
		attempts: make(map[string]domain.Attempt),
		answers:  make(map[string][]domain.Answer),
		scores:   make(map[string]domain.ScoreEntry),
		users:    make(map[string]domain.User),
	}
}

// Seed inserts quizzes wholesale, questions and choices included.
func (s *Store) Seed(quizzes ...domain.QuizPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range quizzes {
		s.quizzes[q.ID] = q
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.QuizPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id string) (domain.QuizPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.QuizPost{}, domain.ErrQuizNotFound
	}
	return sortedCopy(quiz), nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.QuizPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizPost, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, sortedCopy(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.QuizPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	// Scalar columns only; questions are managed through their own ops.
	quiz.Questions = existing.Questions
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	return nil
}

func (s *Store) SlugExists(_ context.Context, slug, excludeQuizID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.quizzes {
		if q.Slug == slug && q.ID != excludeQuizID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) PublishedQuizBySlug(_ context.Context, slug string) (domain.QuizPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.quizzes {
		if q.Slug == slug && q.Status == domain.StatusPublished && q.IsActive {
			return sortedCopy(q), nil
		}
	}
	return domain.QuizPost{}, domain.ErrQuizNotFound
}

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[question.QuizPostID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz.Questions = append(quiz.Questions, question)
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, _, _, ok := s.findQuestion(id)
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	choices := make([]domain.Choice, len(q.Choices))
	copy(choices, q.Choices)
	sort.SliceStable(choices, func(i, j int) bool { return choices[i].Order < choices[j].Order })
	q.Choices = choices
	return q, nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, quizID, idx, ok := s.findQuestion(question.ID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	question.Choices = old.Choices
	quiz := s.quizzes[quizID]
	quiz.Questions[idx] = question
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, quizID, idx, ok := s.findQuestion(id)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	quiz := s.quizzes[quizID]
	quiz.Questions = append(quiz.Questions[:idx], quiz.Questions[idx+1:]...)
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) SetQuestionOrder(_ context.Context, questionID string, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, quizID, idx, ok := s.findQuestion(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.Order = order
	quiz := s.quizzes[quizID]
	quiz.Questions[idx] = q
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) CreateChoice(_ context.Context, choice domain.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, quizID, idx, ok := s.findQuestion(choice.QuestionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.Choices = append(q.Choices, choice)
	quiz := s.quizzes[quizID]
	quiz.Questions[idx] = q
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) GetChoice(_ context.Context, id string) (domain.Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, _, _, _, ok := s.findChoice(id)
	if !ok {
		return domain.Choice{}, domain.ErrChoiceNotFound
	}
	return c, nil
}

func (s *Store) UpdateChoice(_ context.Context, choice domain.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, quizID, qIdx, cIdx, ok := s.findChoice(choice.ID)
	if !ok {
		return domain.ErrChoiceNotFound
	}
	quiz := s.quizzes[quizID]
	quiz.Questions[qIdx].Choices[cIdx] = choice
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) DeleteChoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, quizID, qIdx, cIdx, ok := s.findChoice(id)
	if !ok {
		return domain.ErrChoiceNotFound
	}
	quiz := s.quizzes[quizID]
	choices := quiz.Questions[qIdx].Choices
	quiz.Questions[qIdx].Choices = append(choices[:cIdx], choices[cIdx+1:]...)
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) ClearCorrectChoices(_ context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, quizID, idx, ok := s.findQuestion(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	for i := range q.Choices {
		q.Choices[i].IsCorrect = false
	}
	quiz := s.quizzes[quizID]
	quiz.Questions[idx] = q
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *Store) GetAttempt(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *Store) FinishAttempt(_ context.Context, attemptID string, score, maxScore int, finishedAt time.Time, answers []domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if attempt.FinishedAt != nil {
		return domain.ErrAttemptFinished
	}
	attempt.Score = score
	attempt.MaxScore = maxScore
	attempt.FinishedAt = &finishedAt
	s.attempts[attemptID] = attempt
	s.answers[attemptID] = append([]domain.Answer(nil), answers...)
	return nil
}

// Answers exposes an attempt's answer rows for tests.
func (s *Store) Answers(attemptID string) []domain.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Answer(nil), s.answers[attemptID]...)
}

func (s *Store) HasOtherFinishedAttempt(_ context.Context, quizID, accountID, excludeAttemptID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if accountID == "" {
		return false, nil
	}
	for _, a := range s.attempts {
		if a.ID != excludeAttemptID && a.QuizPostID == quizID && a.AccountID == accountID && a.FinishedAt != nil {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateScoreEntry(_ context.Context, entry domain.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.scores {
		if e.AttemptID == entry.AttemptID {
			return domain.ErrScoreAlreadySaved
		}
	}
	s.scores[entry.ID] = entry
	return nil
}

func (s *Store) ScoreEntryExists(_ context.Context, attemptID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.scores {
		if e.AttemptID == attemptID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListScoreEntries(_ context.Context, quizID string) ([]domain.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ScoreEntry
	for _, e := range s.scores {
		if e.QuizPostID == quizID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Email] = user
	return nil
}

func (s *Store) AttemptHistory(_ context.Context, quizID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, a := range s.attempts {
		if a.QuizPostID == quizID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *Store) ScoreHistory(ctx context.Context, quizID string) ([]domain.ScoreEntry, error) {
	return s.ListScoreEntries(ctx, quizID)
}

func (s *Store) findQuestion(id string) (domain.Question, string, int, bool) {
	for quizID, quiz := range s.quizzes {
		for i, q := range quiz.Questions {
			if q.ID == id {
				return q, quizID, i, true
			}
		}
	}
	return domain.Question{}, "", 0, false
}

func (s *Store) findChoice(id string) (domain.Choice, string, int, int, bool) {
	for quizID, quiz := range s.quizzes {
		for qi, q := range quiz.Questions {
			for ci, c := range q.Choices {
				if c.ID == id {
					return c, quizID, qi, ci, true
				}
			}
		}
	}
	return domain.Choice{}, "", 0, 0, false
}

// sortedCopy returns the quiz with questions and choices ordered
// ascending; ties keep insertion order (stable sort).
func sortedCopy(quiz domain.QuizPost) domain.QuizPost {
	questions := make([]domain.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	for i := range questions {
		choices := make([]domain.Choice, len(questions[i].Choices))
		copy(choices, questions[i].Choices)
		sort.SliceStable(choices, func(a, b int) bool { return choices[a].Order < choices[b].Order })
		questions[i].Choices = choices
	}
	quiz.Questions = questions
	return quiz
}
