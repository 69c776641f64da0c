package http

import (
	"net/http"
	"strings"

	"quizhost-service/internal/app"
)

func (a *API) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.authoring.ListQuizzes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *API) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	quiz, err := a.authoring.CreateQuiz(r.Context(), strings.TrimSpace(req.Title), adminEmail(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.authoring.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) handleUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var req updateQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quizID := r.PathValue("id")

	quiz, err := a.authoring.UpdateQuizMeta(r.Context(), quizID, app.QuizMetaUpdate{
		Title:       req.Title,
		Description: req.Description,
		Theme:       req.Theme,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidate(r.Context(), quizID)
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("id")
	a.invalidate(r.Context(), quizID)
	if err := a.authoring.DeleteQuiz(r.Context(), quizID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handlePublishQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("id")
	slug, verrs, err := a.authoring.Publish(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(verrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:            "quiz is not ready to publish",
			ValidationErrors: verrs,
		})
		return
	}
	a.invalidate(r.Context(), quizID)
	writeJSON(w, http.StatusOK, publishResponse{Success: true, Slug: slug})
}

func (a *API) handleUnpublishQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("id")
	a.invalidate(r.Context(), quizID)
	if err := a.authoring.Unpublish(r.Context(), quizID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quizID := r.PathValue("id")
	if err := a.authoring.SetActive(r.Context(), quizID, req.Active); err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidate(r.Context(), quizID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req addQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	quizID := r.PathValue("id")
	question, err := a.authoring.AddQuestion(r.Context(), quizID, strings.TrimSpace(req.Text))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidate(r.Context(), quizID)
	writeJSON(w, http.StatusCreated, question)
}

func (a *API) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req updateQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	question, err := a.authoring.UpdateQuestion(r.Context(), r.PathValue("id"), app.QuestionUpdate{
		Text:   req.Text,
		Points: req.Points,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidate(r.Context(), question.QuizPostID)
	writeJSON(w, http.StatusOK, question)
}

func (a *API) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")
	question, err := a.authoring.GetQuestion(r.Context(), questionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := a.authoring.DeleteQuestion(r.Context(), questionID); err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidate(r.Context(), question.QuizPostID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quizID := r.PathValue("id")
	if err := a.authoring.ReorderQuestions(r.Context(), quizID, req.QuestionIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidate(r.Context(), quizID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddChoice(w http.ResponseWriter, r *http.Request) {
	var req addChoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	choice, err := a.authoring.AddChoice(r.Context(), r.PathValue("id"), strings.TrimSpace(req.Text))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidateQuestion(r.Context(), choice.QuestionID)
	writeJSON(w, http.StatusCreated, choice)
}

func (a *API) handleUpdateChoice(w http.ResponseWriter, r *http.Request) {
	var req updateChoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	choice, err := a.authoring.UpdateChoice(r.Context(), r.PathValue("id"), app.ChoiceUpdate{
		Text:      req.Text,
		IsCorrect: req.IsCorrect,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidateQuestion(r.Context(), choice.QuestionID)
	writeJSON(w, http.StatusOK, choice)
}

func (a *API) handleDeleteChoice(w http.ResponseWriter, r *http.Request) {
	choice, err := a.authoring.GetChoice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := a.authoring.DeleteChoice(r.Context(), choice.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	a.invalidateQuestion(r.Context(), choice.QuestionID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleQuizReport(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("id")
	if _, err := a.authoring.GetQuiz(r.Context(), quizID); err != nil {
		writeServiceError(w, err)
		return
	}
	report, err := a.analytics.Report(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleQuizScores is the admin view of saved scores with hashes and
// account ids included.
func (a *API) handleQuizScores(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("id")
	if _, err := a.authoring.GetQuiz(r.Context(), quizID); err != nil {
		writeServiceError(w, err)
		return
	}
	entries, err := a.attempts.Scores(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
