package http

import (
	"time"

	"quizhost-service/internal/domain"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type validationResponse struct {
	Success          bool                     `json:"success"`
	Error            string                   `json:"error"`
	ValidationErrors []domain.ValidationError `json:"validationErrors"`
}

// choiceView is the public shape of a choice. Correctness never leaves
// the server on the play path.
type choiceView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type questionView struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Order   int          `json:"order"`
	Points  int          `json:"points"`
	Type    string       `json:"type"`
	Choices []choiceView `json:"choices"`
}

type quizView struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Slug        string            `json:"slug"`
	Theme       map[string]string `json:"theme,omitempty"`
	Questions   []questionView    `json:"questions"`
}

func toQuizView(quiz domain.QuizPost) quizView {
	view := quizView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Slug:        quiz.Slug,
		Theme:       quiz.Theme,
		Questions:   make([]questionView, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		qv := questionView{
			ID:      q.ID,
			Text:    q.Text,
			Order:   q.Order,
			Points:  q.Points,
			Type:    string(q.Type),
			Choices: make([]choiceView, 0, len(q.Choices)),
		}
		for _, c := range q.Choices {
			qv.Choices = append(qv.Choices, choiceView{ID: c.ID, Text: c.Text, Order: c.Order})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

type startAttemptRequest struct {
	PlayerName string `json:"playerName"`
	DeviceID   string `json:"deviceId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

type startAttemptResponse struct {
	AttemptID string    `json:"attemptId"`
	QuizID    string    `json:"quizId"`
	StartedAt time.Time `json:"startedAt"`
}

type submitAttemptRequest struct {
	Slug    string                   `json:"slug"`
	Answers []domain.SubmittedAnswer `json:"answers"`
}

type saveScoreRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type attemptResultResponse struct {
	AttemptID  string     `json:"attemptId"`
	QuizID     string     `json:"quizId"`
	PlayerName string     `json:"playerName"`
	Score      int        `json:"score"`
	MaxScore   int        `json:"maxScore"`
	Finished   bool       `json:"finished"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type leaderboardEntry struct {
	PlayerName string    `json:"playerName"`
	Score      int       `json:"score"`
	MaxScore   int       `json:"maxScore"`
	CreatedAt  time.Time `json:"createdAt"`
}

type leaderboardResponse struct {
	QuizID  string             `json:"quizId"`
	Entries []leaderboardEntry `json:"entries"`
}

type createQuizRequest struct {
	Title string `json:"title"`
}

type updateQuizRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Theme       map[string]string `json:"theme"`
}

type publishResponse struct {
	Success bool   `json:"success"`
	Slug    string `json:"slug"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

type addQuestionRequest struct {
	Text string `json:"text"`
}

type updateQuestionRequest struct {
	Text   *string `json:"text"`
	Points *int    `json:"points"`
}

type reorderRequest struct {
	QuestionIDs []string `json:"questionIds"`
}

type addChoiceRequest struct {
	Text string `json:"text"`
}

type updateChoiceRequest struct {
	Text      *string `json:"text"`
	IsCorrect *bool   `json:"isCorrect"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
