package app

import (
	"context"
	"log"
	"sort"
	"time"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/identity"
)

// PublishedQuizReader serves a published, publicly visible quiz by slug
// with questions and choices ordered ascending. The redis cache wraps the
// store behind this interface for the public read path; the submission
// path always goes to the store directly.
type PublishedQuizReader interface {
	PublishedQuizBySlug(ctx context.Context, slug string) (domain.QuizPost, error)
}

// AttemptStore is the persistence surface of the attempt lifecycle.
// FinishAttempt must apply the PENDING→FINISHED transition conditionally
// (a finished attempt stays untouched and ErrAttemptFinished is returned)
// and must write the attempt update and the answer rows atomically.
type AttemptStore interface {
	PublishedQuizReader

	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, id string) (domain.Attempt, error)
	FinishAttempt(ctx context.Context, attemptID string, score, maxScore int, finishedAt time.Time, answers []domain.Answer) error
	HasOtherFinishedAttempt(ctx context.Context, quizID, accountID, excludeAttemptID string) (bool, error)

	CreateScoreEntry(ctx context.Context, entry domain.ScoreEntry) error
	ScoreEntryExists(ctx context.Context, attemptID string) (bool, error)
	ListScoreEntries(ctx context.Context, quizID string) ([]domain.ScoreEntry, error)
}

// AccountResolver maps an email to a central ledger account id, creating
// the local cache record lazily. An empty id means no account exists.
type AccountResolver interface {
	ResolveAccountID(ctx context.Context, email, name string) (string, error)
}

// RewardQueue accepts reward events for asynchronous delivery.
type RewardQueue interface {
	Enqueue(ctx context.Context, ev domain.RewardEvent) error
	Dequeue(ctx context.Context) (domain.RewardEvent, error)
}

// ScoreListener is notified when a new score entry is saved. Used by the
// admin score feed; may be nil.
type ScoreListener interface {
	ScoreSaved(entry domain.ScoreEntry)
}

// StartParams are the inputs to starting an attempt. Email and Name are
// set only for authenticated players.
type StartParams struct {
	Slug       string
	PlayerName string
	DeviceID   string
	Email      string
	Name       string
}

// SubmitResult is what the player sees after submitting.
type SubmitResult struct {
	AttemptID              string `json:"attemptId"`
	Score                  int    `json:"score"`
	MaxScore               int    `json:"maxScore"`
	Correct                int    `json:"correct"`
	AlreadyCompletedBefore bool   `json:"alreadyCompletedBefore"`
}

// AttemptService orchestrates start → submit → save-score.
type AttemptService struct {
	store    AttemptStore
	hasher   *identity.Hasher
	accounts AccountResolver
	rewards  RewardQueue
	policy   RewardPolicy
	listener ScoreListener
	now      func() time.Time
}

func NewAttemptService(store AttemptStore, hasher *identity.Hasher, accounts AccountResolver, rewards RewardQueue, policy RewardPolicy) *AttemptService {
	return &AttemptService{
		store:    store,
		hasher:   hasher,
		accounts: accounts,
		rewards:  rewards,
		policy:   policy,
		now:      time.Now,
	}
}

// SetScoreListener wires the admin score feed. Must be called before the
// server starts accepting requests.
func (s *AttemptService) SetScoreListener(l ScoreListener) {
	s.listener = l
}

// Start creates a PENDING attempt against a published quiz. No scoring
// happens here. A failure to resolve the player's ledger account degrades
// to an anonymous attempt rather than blocking play.
func (s *AttemptService) Start(ctx context.Context, p StartParams) (domain.Attempt, error) {
	quiz, err := s.store.PublishedQuizBySlug(ctx, p.Slug)
	if err != nil {
		return domain.Attempt{}, err
	}

	var deviceHash string
	if p.DeviceID != "" {
		deviceHash = s.hasher.Device(p.DeviceID)
	}

	var accountID string
	if p.Email != "" && s.accounts != nil {
		accountID, err = s.accounts.ResolveAccountID(ctx, p.Email, p.Name)
		if err != nil {
			log.Printf("attempt start: resolve account for %s: %v", identity.Short(s.hasher.Email(p.Email)), err)
			accountID = ""
		}
	}

	attempt := domain.Attempt{
		ID:         domain.NewID(domain.PrefixAttempt),
		QuizPostID: quiz.ID,
		AccountID:  accountID,
		PlayerName: p.PlayerName,
		DeviceHash: deviceHash,
		StartedAt:  s.now(),
	}
	if err := s.store.CreateAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// Submit finishes an attempt exactly once. The quiz definition is
// refetched fresh from the store so client-supplied question or choice
// data can never influence the score. Reward delivery is queued after the
// durable writes commit and can never fail the submission.
func (s *AttemptService) Submit(ctx context.Context, attemptID, slug string, answers []domain.SubmittedAnswer) (SubmitResult, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return SubmitResult{}, err
	}
	if attempt.Finished() {
		return SubmitResult{}, domain.ErrAttemptFinished
	}

	quiz, err := s.store.PublishedQuizBySlug(ctx, slug)
	if err != nil {
		return SubmitResult{}, err
	}
	if quiz.ID != attempt.QuizPostID {
		return SubmitResult{}, domain.ErrQuizMismatch
	}

	result := ScoreAttempt(quiz.Questions, answers)

	rows := answerRows(attemptID, answers)
	finishedAt := s.now()
	if err := s.store.FinishAttempt(ctx, attemptID, result.Score, result.MaxScore, finishedAt, rows); err != nil {
		return SubmitResult{}, err
	}

	already := false
	if attempt.AccountID != "" {
		already, err = s.store.HasOtherFinishedAttempt(ctx, attempt.QuizPostID, attempt.AccountID, attemptID)
		if err != nil {
			// The attempt is already durable; report first completion
			// semantics conservatively and log.
			log.Printf("attempt submit: eligibility check for %s: %v", attemptID, err)
			already = true
		}
		if !already && s.rewards != nil {
			ev := s.policy.Event(attempt.AccountID, attempt.QuizPostID, attemptID, result, finishedAt)
			if qErr := s.rewards.Enqueue(ctx, ev); qErr != nil {
				log.Printf("attempt submit: enqueue reward for %s: %v", attemptID, qErr)
			}
		}
	}

	return SubmitResult{
		AttemptID:              attemptID,
		Score:                  result.Score,
		MaxScore:               result.MaxScore,
		Correct:                result.Correct,
		AlreadyCompletedBefore: already,
	}, nil
}

// Result returns an attempt for the results page.
func (s *AttemptService) Result(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.store.GetAttempt(ctx, attemptID)
}

// SaveScore records an opt-in leaderboard entry for a finished attempt,
// at most once per attempt.
func (s *AttemptService) SaveScore(ctx context.Context, attemptID, name, email string) (domain.ScoreEntry, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.ScoreEntry{}, err
	}
	if !attempt.Finished() {
		return domain.ScoreEntry{}, domain.ErrAttemptPending
	}
	exists, err := s.store.ScoreEntryExists(ctx, attemptID)
	if err != nil {
		return domain.ScoreEntry{}, err
	}
	if exists {
		return domain.ScoreEntry{}, domain.ErrScoreAlreadySaved
	}

	var emailHash string
	if email != "" {
		emailHash = s.hasher.Email(email)
	}
	entry := domain.ScoreEntry{
		ID:         domain.NewID(domain.PrefixScore),
		QuizPostID: attempt.QuizPostID,
		AttemptID:  attemptID,
		DeviceHash: attempt.DeviceHash,
		AccountID:  attempt.AccountID,
		PlayerName: name,
		Email:      email,
		EmailHash:  emailHash,
		Score:      attempt.Score,
		MaxScore:   attempt.MaxScore,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateScoreEntry(ctx, entry); err != nil {
		return domain.ScoreEntry{}, err
	}
	if s.listener != nil {
		s.listener.ScoreSaved(entry)
	}
	return entry, nil
}

// Scores returns a quiz's saved score entries, newest first.
func (s *AttemptService) Scores(ctx context.Context, quizID string) ([]domain.ScoreEntry, error) {
	entries, err := s.store.ListScoreEntries(ctx, quizID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// answerRows builds one immutable answer row per submitted pair, keeping
// the first occurrence when a question is repeated.
func answerRows(attemptID string, answers []domain.SubmittedAnswer) []domain.Answer {
	seen := make(map[string]bool, len(answers))
	rows := make([]domain.Answer, 0, len(answers))
	for _, a := range answers {
		if a.QuestionID == "" || seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true
		rows = append(rows, domain.Answer{
			ID:         domain.NewID(domain.PrefixAnswer),
			AttemptID:  attemptID,
			QuestionID: a.QuestionID,
			ChoiceID:   a.ChoiceID,
		})
	}
	return rows
}
