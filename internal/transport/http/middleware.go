package http

import (
	"context"
	"net/http"
)

type contextKey string

const adminEmailKey contextKey = "adminEmail"

// requireAdmin gates the admin routes behind a valid central session.
// When no auth gateway is configured (local development against the
// memory store) the routes are open.
func (a *API) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.auth == nil {
			next(w, r)
			return
		}

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
		if !resp.Success || resp.User == nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), adminEmailKey, resp.User.Email)
		next(w, r.WithContext(ctx))
	}
}

func adminEmail(r *http.Request) string {
	email, _ := r.Context().Value(adminEmailKey).(string)
	return email
}
