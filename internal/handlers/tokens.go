package handlers

import (
	"net/http"
	"time"

	applog "ahara/internal/log"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken mints a short-lived bearer token for the signed-in practitioner.
func IssueToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if tokens == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "token issuing not available")
		return
	}
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	token, expiresAt, err := tokens.Issue(session.UserID, session.Email, session.Name, session.Role)
	if err != nil {
		applog.Error(r.Context(), "failed to issue token", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to issue token")
		return
	}
	applog.Debug(r.Context(), "bearer token issued", "expiresAt", expiresAt)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}
