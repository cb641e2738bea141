package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"partvault/internal/models"
	"partvault/internal/principal"
	"partvault/internal/ws"
)

func (s *server) handleListParts(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	parts, err := s.store.ListPartsByOwner(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list parts", map[string]any{"error": err.Error()})
		return
	}
	if parts == nil {
		parts = []models.Part{}
	}
	writeJSON(w, http.StatusOK, models.PartListResponse{Items: parts})
}

func (s *server) handleUpsertPart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	var req models.PartUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	req.Slug = principal.Sanitize(req.Slug)
	if req.Slug == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "slug is required", nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required", nil)
		return
	}

	part, err := s.store.UpsertPart(r.Context(), sess.UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if folder, err := s.assets.FolderKey(sess); err == nil {
		s.hub.Publish(ws.Event{Type: ws.EventPartUpdated, Folder: folder, Payload: map[string]string{"slug": part.Slug}})
	}
	writeJSON(w, http.StatusOK, part)
}

func (s *server) handleGetPart(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	part, err := s.store.GetPart(r.Context(), slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, part)
}
