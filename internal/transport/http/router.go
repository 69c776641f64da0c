package http

import "net/http"

// NewRouter wires every route. Auth routes appear only when an auth
// gateway is configured; the score feed only when one is attached.
func NewRouter(api *API) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public play surface.
	mux.HandleFunc("GET /api/quizzes/{slug}", api.handleGetPublishedQuiz)
	mux.HandleFunc("GET /api/quizzes/{slug}/leaderboard", api.handleLeaderboard)
	mux.HandleFunc("POST /api/quizzes/{slug}/attempts", api.handleStartAttempt)
	mux.HandleFunc("POST /api/attempts/{id}/submit", api.handleSubmitAttempt)
	mux.HandleFunc("GET /api/attempts/{id}", api.handleAttemptResult)
	mux.HandleFunc("POST /api/attempts/{id}/score", api.handleSaveScore)

	if api.accounts != nil {
		mux.HandleFunc("GET /api/accounts/balance", api.handleBalance)
	}

	if api.auth != nil {
		mux.HandleFunc("POST /api/auth/login", api.handleLogin)
		mux.HandleFunc("POST /api/auth/register", api.handleRegister)
		mux.HandleFunc("GET /api/auth/me", api.handleMe)
		mux.HandleFunc("POST /api/auth/refresh", api.handleRefresh)
	}

	// Admin authoring surface.
	mux.HandleFunc("GET /api/admin/quizzes", api.requireAdmin(api.handleListQuizzes))
	mux.HandleFunc("POST /api/admin/quizzes", api.requireAdmin(api.handleCreateQuiz))
	mux.HandleFunc("GET /api/admin/quizzes/{id}", api.requireAdmin(api.handleGetQuiz))
	mux.HandleFunc("PATCH /api/admin/quizzes/{id}", api.requireAdmin(api.handleUpdateQuiz))
	mux.HandleFunc("DELETE /api/admin/quizzes/{id}", api.requireAdmin(api.handleDeleteQuiz))
	mux.HandleFunc("POST /api/admin/quizzes/{id}/publish", api.requireAdmin(api.handlePublishQuiz))
	mux.HandleFunc("POST /api/admin/quizzes/{id}/unpublish", api.requireAdmin(api.handleUnpublishQuiz))
	mux.HandleFunc("POST /api/admin/quizzes/{id}/active", api.requireAdmin(api.handleSetActive))
	mux.HandleFunc("POST /api/admin/quizzes/{id}/questions", api.requireAdmin(api.handleAddQuestion))
	mux.HandleFunc("POST /api/admin/quizzes/{id}/questions/reorder", api.requireAdmin(api.handleReorderQuestions))
	mux.HandleFunc("PATCH /api/admin/questions/{id}", api.requireAdmin(api.handleUpdateQuestion))
	mux.HandleFunc("DELETE /api/admin/questions/{id}", api.requireAdmin(api.handleDeleteQuestion))
	mux.HandleFunc("POST /api/admin/questions/{id}/choices", api.requireAdmin(api.handleAddChoice))
	mux.HandleFunc("PATCH /api/admin/choices/{id}", api.requireAdmin(api.handleUpdateChoice))
	mux.HandleFunc("DELETE /api/admin/choices/{id}", api.requireAdmin(api.handleDeleteChoice))
	mux.HandleFunc("GET /api/admin/quizzes/{id}/report", api.requireAdmin(api.handleQuizReport))
	mux.HandleFunc("GET /api/admin/quizzes/{id}/scores", api.requireAdmin(api.handleQuizScores))

	if api.feed != nil {
		mux.HandleFunc("GET /api/admin/scores/feed", api.requireAdmin(api.feed.ServeWS))
	}

	return mux
}
