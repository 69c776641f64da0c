// Package http exposes the quiz service over REST plus an admin
// websocket feed of saved scores.
package http

import (
	"context"
	"log"
	"net/http"
	"strings"

	"quizhost-service/internal/app"
	"quizhost-service/internal/infra/ledger"
)

// AuthGateway proxies session calls to the central account service.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (ledger.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (ledger.AuthResponse, error)
	Me(ctx context.Context, accessToken string) (ledger.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (ledger.AuthResponse, error)
}

// CacheInvalidator drops a cached published quiz after admin edits.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, slug string)
}

// API bundles the use-case services behind the HTTP handlers. Auth,
// accounts, feed and cache are optional; nil disables the routes or the
// behavior they back.
type API struct {
	authoring *app.AuthoringService
	attempts  *app.AttemptService
	analytics *app.AnalyticsService
	accounts  *app.AccountService
	public    app.PublishedQuizReader
	auth      AuthGateway
	feed      *ScoreFeed
	cache     CacheInvalidator
}

func NewAPI(authoring *app.AuthoringService, attempts *app.AttemptService, analytics *app.AnalyticsService, public app.PublishedQuizReader) *API {
	return &API{
		authoring: authoring,
		attempts:  attempts,
		analytics: analytics,
		public:    public,
	}
}

func (a *API) WithAccounts(accounts *app.AccountService) *API { a.accounts = accounts; return a }
func (a *API) WithAuth(auth AuthGateway) *API                 { a.auth = auth; return a }
func (a *API) WithScoreFeed(feed *ScoreFeed) *API             { a.feed = feed; return a }
func (a *API) WithCacheInvalidator(c CacheInvalidator) *API   { a.cache = c; return a }

func (a *API) handleGetPublishedQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.public.PublishedQuizBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuizView(quiz))
}

func (a *API) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PlayerName) == "" {
		writeError(w, http.StatusBadRequest, "playerName is required")
		return
	}

	attempt, err := a.attempts.Start(r.Context(), app.StartParams{
		Slug:       r.PathValue("slug"),
		PlayerName: strings.TrimSpace(req.PlayerName),
		DeviceID:   req.DeviceID,
		Email:      req.Email,
		Name:       req.Name,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, startAttemptResponse{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizPostID,
		StartedAt: attempt.StartedAt,
	})
}

func (a *API) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitAttemptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return
	}

	result, err := a.attempts.Submit(r.Context(), r.PathValue("id"), req.Slug, req.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleAttemptResult(w http.ResponseWriter, r *http.Request) {
	attempt, err := a.attempts.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptResultResponse{
		AttemptID:  attempt.ID,
		QuizID:     attempt.QuizPostID,
		PlayerName: attempt.PlayerName,
		Score:      attempt.Score,
		MaxScore:   attempt.MaxScore,
		Finished:   attempt.Finished(),
		StartedAt:  attempt.StartedAt,
		FinishedAt: attempt.FinishedAt,
	})
}

func (a *API) handleSaveScore(w http.ResponseWriter, r *http.Request) {
	var req saveScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	entry, err := a.attempts.SaveScore(r.Context(), r.PathValue("id"), strings.TrimSpace(req.Name), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleLeaderboard serves the public saved-score list for a published
// quiz. Hashes and emails stay server-side.
func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.public.PublishedQuizBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	entries, err := a.attempts.Scores(r.Context(), quiz.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := leaderboardResponse{QuizID: quiz.ID, Entries: make([]leaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		response.Entries = append(response.Entries, leaderboardEntry{
			PlayerName: e.PlayerName,
			Score:      e.Score,
			MaxScore:   e.MaxScore,
			CreatedAt:  e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) handleBalance(w http.ResponseWriter, r *http.Request) {
	if a.accounts == nil {
		writeError(w, http.StatusNotFound, "accounts are not configured")
		return
	}
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	account, err := a.accounts.Balance(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "no account for this email")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if resp.Success && a.accounts != nil {
		if _, err := a.accounts.ResolveAccountID(r.Context(), req.Email, ""); err != nil {
			log.Printf("login: backfill account cache: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := a.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Make sure a ledger account with wallets exists for the new user.
	// Signup is idempotent against an already-registered email.
	if resp.Success && a.accounts != nil {
		if _, err := a.accounts.Signup(r.Context(), req.Email, req.Name, req.Password); err != nil {
			log.Printf("register: ensure ledger account: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	resp, err := a.auth.Me(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// invalidate drops the public cache entry for a quiz after an admin
// edit. Best effort.
func (a *API) invalidate(ctx context.Context, quizID string) {
	if a.cache == nil {
		return
	}
	quiz, err := a.authoring.GetQuiz(ctx, quizID)
	if err != nil || quiz.Slug == "" {
		return
	}
	a.cache.Invalidate(ctx, quiz.Slug)
}

// invalidateQuestion drops the cached quiz a question belongs to.
func (a *API) invalidateQuestion(ctx context.Context, questionID string) {
	if a.cache == nil {
		return
	}
	question, err := a.authoring.GetQuestion(ctx, questionID)
	if err != nil {
		return
	}
	a.invalidate(ctx, question.QuizPostID)
}
