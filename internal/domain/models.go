package domain

import "time"

// QuizStatus is the lifecycle state of a quiz post.
type QuizStatus string

const (
	StatusDraft     QuizStatus = "DRAFT"
	StatusPublished QuizStatus = "PUBLISHED"
)

// QuestionType enumerates question kinds. Only single-choice exists today.
type QuestionType string

const (
	TypeSingleChoice QuestionType = "SINGLE_CHOICE"
)

// QuizPost is an authored quiz. A slug is present only while PUBLISHED.
type QuizPost struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      QuizStatus        `json:"status"`
	Slug        string            `json:"slug,omitempty"`
	IsActive    bool              `json:"isActive"`
	Theme       map[string]string `json:"theme,omitempty"` // display metadata, opaque to the core
	AuthorEmail string            `json:"authorEmail,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
	Questions   []Question        `json:"questions,omitempty"`
}

// Question is one MCQ in a quiz, ordered by Order ascending.
type Question struct {
	ID         string       `json:"id"`
	QuizPostID string       `json:"quizPostId"`
	Text       string       `json:"text"`
	Order      int          `json:"order"`
	Points     int          `json:"points"` // defaults to 1 if zero
	Type       QuestionType `json:"type"`
	Choices    []Choice     `json:"choices,omitempty"`
}

// Choice is one selectable option for a question.
type Choice struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	Order      int    `json:"order"`
	IsCorrect  bool   `json:"isCorrect"`
}

// Attempt is one play of a quiz. It is created PENDING at start and
// finished exactly once at submission; FinishedAt is nil while pending.
type Attempt struct {
	ID         string     `json:"id"`
	QuizPostID string     `json:"quizPostId"`
	AccountID  string     `json:"accountId,omitempty"`
	PlayerName string     `json:"playerName"`
	DeviceHash string     `json:"deviceHash,omitempty"`
	Score      int        `json:"score"`
	MaxScore   int        `json:"maxScore"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Finished reports whether the attempt reached its terminal state.
func (a Attempt) Finished() bool {
	return a.FinishedAt != nil
}

// Answer records the choice submitted for one question of one attempt.
// Immutable once written; one answer per question per attempt.
type Answer struct {
	ID         string `json:"id"`
	AttemptID  string `json:"attemptId"`
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId,omitempty"` // empty when unanswered
}

// SubmittedAnswer pairs a question with the choice a player picked.
// Scoring always checks it against the store's own quiz definition.
type SubmittedAnswer struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

// ScoreEntry is an opt-in leaderboard record, at most one per attempt.
type ScoreEntry struct {
	ID         string    `json:"id"`
	QuizPostID string    `json:"quizPostId"`
	AttemptID  string    `json:"attemptId"`
	DeviceHash string    `json:"deviceHash,omitempty"`
	AccountID  string    `json:"accountId,omitempty"`
	PlayerName string    `json:"playerName"`
	Email      string    `json:"email,omitempty"`
	EmailHash  string    `json:"emailHash,omitempty"`
	Score      int       `json:"score"`
	MaxScore   int       `json:"maxScore"`
	CreatedAt  time.Time `json:"createdAt"`
}

// User caches the mapping from an email to the central ledger account,
// created lazily on first login/signup to avoid repeated lookups.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidationError is one publish-validation violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RewardEvent is the ledger delta granted for a first quiz completion.
type RewardEvent struct {
	AccountID string    `json:"accountId"`
	QuizID    string    `json:"quizId"`
	AttemptID string    `json:"attemptId"`
	Score     int       `json:"score"`
	MaxScore  int       `json:"maxScore"`
	Correct   int       `json:"correct"`
	Coins     int       `json:"coins"`
	Tokens    int       `json:"tokens"`
	XP        int       `json:"xp"`
	Perfect   bool      `json:"perfect"`
	CreatedAt time.Time `json:"createdAt"`
}
