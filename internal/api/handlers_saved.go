package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"partvault/internal/models"
)

func (s *server) handleListSavedItems(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	items, err := s.store.ListSavedItems(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list saved items", map[string]any{"error": err.Error()})
		return
	}
	if items == nil {
		items = []models.SavedItem{}
	}
	writeJSON(w, http.StatusOK, models.SavedItemListResponse{Items: items})
}

func (s *server) handleSaveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	var req models.SaveItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.PartSlug) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "partSlug is required", nil)
		return
	}

	item, err := s.store.SaveItem(r.Context(), sess.UserID, req.PartSlug)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *server) handleDeleteSavedItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	deleted, err := s.store.DeleteSavedItem(r.Context(), sess.UserID, slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete saved item", map[string]any{"error": err.Error()})
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not_found", "saved item not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
