package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/ledger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *ledger.APIError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, "quiz not found")
	case errors.Is(err, domain.ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, "question not found")
	case errors.Is(err, domain.ErrChoiceNotFound):
		writeError(w, http.StatusNotFound, "choice not found")
	case errors.Is(err, domain.ErrAttemptNotFound):
		writeError(w, http.StatusNotFound, "attempt not found")
	case errors.Is(err, domain.ErrAttemptFinished):
		writeError(w, http.StatusConflict, "attempt already submitted")
	case errors.Is(err, domain.ErrAttemptPending):
		writeError(w, http.StatusConflict, "attempt is not finished yet")
	case errors.Is(err, domain.ErrScoreAlreadySaved):
		writeError(w, http.StatusConflict, "score already saved for this attempt")
	case errors.Is(err, domain.ErrQuizMismatch):
		writeError(w, http.StatusBadRequest, "attempt does not belong to this quiz")
	case errors.Is(err, domain.ErrChoiceLimit):
		writeError(w, http.StatusBadRequest, "question already has the maximum number of choices")
	case errors.Is(err, ledger.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "account service unavailable")
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, apiErr.Message)
	default:
		writeError(w, http.StatusInternalServerError, "request failed")
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
