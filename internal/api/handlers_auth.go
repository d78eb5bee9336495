package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token,omitempty"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handlers) newSessionResponse(token string, session auth.Session) sessionResponse {
	return sessionResponse{
		Token:     token,
		Email:     session.Identity,
		IsAdmin:   h.gate.IsAuthorized(session.Identity),
		ExpiresAt: session.ExpiresAt,
	}
}

func (h *Handlers) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, domain.ValidationErr("invalid request body", nil))
		return
	}

	token, session, err := h.authenticator.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if domain.IsKind(err, domain.KindUnauthorized) {
			h.logger.Warn().Str("email", req.Email).Msg("sign-in rejected")
		}
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info().Str("email", session.Identity).Msg("administrator signed in")
	respondWithJSON(w, http.StatusOK, h.newSessionResponse(token, session))
}

func (h *Handlers) handleSignOut(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session.IsAnonymous() {
		writeError(w, r, h.logger, domain.UnauthorizedErr("sign in required"))
		return
	}
	if err := h.authenticator.SignOut(r.Context(), session); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session.IsAnonymous() {
		writeError(w, r, h.logger, domain.UnauthorizedErr("sign in required"))
		return
	}
	respondWithJSON(w, http.StatusOK, h.newSessionResponse("", session))
}
