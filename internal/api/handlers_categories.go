package api

import (
	"net/http"

	"partvault/internal/models"
)

func (s *server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list categories", map[string]any{"error": err.Error()})
		return
	}
	if items == nil {
		items = []models.Category{}
	}
	writeJSON(w, http.StatusOK, models.CategoryListResponse{Items: items})
}
