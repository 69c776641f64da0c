package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizhost-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quiz_posts,alias:qp"`

	ID          string            `bun:"id,pk"`
	Title       string            `bun:"title,notnull"`
	Description string            `bun:"description"`
	Status      string            `bun:"status,notnull"`
	Slug        string            `bun:"slug"`
	IsActive    bool              `bun:"is_active,notnull"`
	Theme       map[string]string `bun:"theme,type:jsonb"`
	AuthorEmail string            `bun:"author_email"`
	CreatedAt   time.Time         `bun:"created_at,notnull"`
	UpdatedAt   time.Time         `bun:"updated_at,notnull"`
	PublishedAt *time.Time        `bun:"published_at"`

	Questions []*questionRow `bun:"rel:has-many,join:id=quiz_post_id"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID         string `bun:"id,pk"`
	QuizPostID string `bun:"quiz_post_id,notnull"`
	Text       string `bun:"text,notnull"`
	Order      int    `bun:"position,notnull"`
	Points     int    `bun:"points,notnull"`
	Type       string `bun:"type,notnull"`

	Choices []*choiceRow `bun:"rel:has-many,join:id=question_id"`
}

type choiceRow struct {
	bun.BaseModel `bun:"table:choices,alias:ch"`

	ID         string `bun:"id,pk"`
	QuestionID string `bun:"question_id,notnull"`
	Text       string `bun:"text,notnull"`
	Order      int    `bun:"position,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:a"`

	ID         string     `bun:"id,pk"`
	QuizPostID string     `bun:"quiz_post_id,notnull"`
	AccountID  string     `bun:"account_id"`
	PlayerName string     `bun:"player_name"`
	DeviceHash string     `bun:"device_hash"`
	Score      int        `bun:"score,notnull"`
	MaxScore   int        `bun:"max_score,notnull"`
	StartedAt  time.Time  `bun:"started_at,notnull"`
	FinishedAt *time.Time `bun:"finished_at"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:ans"`

	ID         string `bun:"id,pk"`
	AttemptID  string `bun:"attempt_id,notnull"`
	QuestionID string `bun:"question_id,notnull"`
	ChoiceID   string `bun:"choice_id"`
}

type scoreEntryRow struct {
	bun.BaseModel `bun:"table:score_entries,alias:s"`

	ID         string    `bun:"id,pk"`
	QuizPostID string    `bun:"quiz_post_id,notnull"`
	AttemptID  string    `bun:"attempt_id,notnull,unique"`
	DeviceHash string    `bun:"device_hash"`
	AccountID  string    `bun:"account_id"`
	PlayerName string    `bun:"player_name,notnull"`
	Email      string    `bun:"email"`
	EmailHash  string    `bun:"email_hash"`
	Score      int       `bun:"score,notnull"`
	MaxScore   int       `bun:"max_score,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk"`
	Email     string    `bun:"email,notnull,unique"`
	Name      string    `bun:"name"`
	AccountID string    `bun:"account_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func quizToRow(q domain.QuizPost) *quizRow {
	return &quizRow{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Status:      string(q.Status),
		Slug:        q.Slug,
		IsActive:    q.IsActive,
		Theme:       q.Theme,
		AuthorEmail: q.AuthorEmail,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
		PublishedAt: q.PublishedAt,
	}
}

func quizFromRow(r *quizRow) domain.QuizPost {
	quiz := domain.QuizPost{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.QuizStatus(r.Status),
		Slug:        r.Slug,
		IsActive:    r.IsActive,
		Theme:       r.Theme,
		AuthorEmail: r.AuthorEmail,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		PublishedAt: r.PublishedAt,
	}
	for _, q := range r.Questions {
		quiz.Questions = append(quiz.Questions, questionFromRow(q))
	}
	return quiz
}

func questionToRow(q domain.Question) *questionRow {
	return &questionRow{
		ID:         q.ID,
		QuizPostID: q.QuizPostID,
		Text:       q.Text,
		Order:      q.Order,
		Points:     q.Points,
		Type:       string(q.Type),
	}
}

func questionFromRow(r *questionRow) domain.Question {
	question := domain.Question{
		ID:         r.ID,
		QuizPostID: r.QuizPostID,
		Text:       r.Text,
		Order:      r.Order,
		Points:     r.Points,
		Type:       domain.QuestionType(r.Type),
	}
	for _, c := range r.Choices {
		question.Choices = append(question.Choices, choiceFromRow(c))
	}
	return question
}

func choiceToRow(c domain.Choice) *choiceRow {
	return &choiceRow{
		ID:         c.ID,
		QuestionID: c.QuestionID,
		Text:       c.Text,
		Order:      c.Order,
		IsCorrect:  c.IsCorrect,
	}
}

func choiceFromRow(r *choiceRow) domain.Choice {
	return domain.Choice{
		ID:         r.ID,
		QuestionID: r.QuestionID,
		Text:       r.Text,
		Order:      r.Order,
		IsCorrect:  r.IsCorrect,
	}
}

func attemptToRow(a domain.Attempt) *attemptRow {
	return &attemptRow{
		ID:         a.ID,
		QuizPostID: a.QuizPostID,
		AccountID:  a.AccountID,
		PlayerName: a.PlayerName,
		DeviceHash: a.DeviceHash,
		Score:      a.Score,
		MaxScore:   a.MaxScore,
		StartedAt:  a.StartedAt,
		FinishedAt: a.FinishedAt,
	}
}

func attemptFromRow(r *attemptRow) domain.Attempt {
	return domain.Attempt{
		ID:         r.ID,
		QuizPostID: r.QuizPostID,
		AccountID:  r.AccountID,
		PlayerName: r.PlayerName,
		DeviceHash: r.DeviceHash,
		Score:      r.Score,
		MaxScore:   r.MaxScore,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func scoreEntryToRow(e domain.ScoreEntry) *scoreEntryRow {
	return &scoreEntryRow{
		ID:         e.ID,
		QuizPostID: e.QuizPostID,
		AttemptID:  e.AttemptID,
		DeviceHash: e.DeviceHash,
		AccountID:  e.AccountID,
		PlayerName: e.PlayerName,
		Email:      e.Email,
		EmailHash:  e.EmailHash,
		Score:      e.Score,
		MaxScore:   e.MaxScore,
		CreatedAt:  e.CreatedAt,
	}
}

func scoreEntryFromRow(r *scoreEntryRow) domain.ScoreEntry {
	return domain.ScoreEntry{
		ID:         r.ID,
		QuizPostID: r.QuizPostID,
		AttemptID:  r.AttemptID,
		DeviceHash: r.DeviceHash,
		AccountID:  r.AccountID,
		PlayerName: r.PlayerName,
		Email:      r.Email,
		EmailHash:  r.EmailHash,
		Score:      r.Score,
		MaxScore:   r.MaxScore,
		CreatedAt:  r.CreatedAt,
	}
}
