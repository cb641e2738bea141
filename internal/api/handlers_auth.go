package api

import (
	"net/http"
	"strings"
	"time"

	"partvault/internal/models"
)

func (s *server) handleLoginLink(w http.ResponseWriter, r *http.Request) {
	var req models.LoginLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required", nil)
		return
	}

	sess, err := s.store.GetOrCreateUser(r.Context(), req.Email, req.DisplayName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to resolve user", map[string]any{"error": err.Error()})
		return
	}
	token, err := s.store.CreateLoginToken(r.Context(), sess.UserID, s.cfg.LoginTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create login token", map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, models.LoginLinkResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

func (s *server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req models.RedeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required", nil)
		return
	}

	sess, err := s.store.RedeemLoginToken(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	accessToken, expiresAt, err := s.tokens.Mint(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to mint session token", map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.SessionResponse{
		AccessToken: accessToken,
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339Nano),
	})
}

// handleGetSession re-mints a token for the authenticated session, sliding the
// expiry forward.
func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}
	accessToken, expiresAt, err := s.tokens.Mint(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to mint session token", map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models.SessionResponse{
		AccessToken: accessToken,
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339Nano),
	})
}
