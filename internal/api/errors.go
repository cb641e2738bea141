package api

import (
	"errors"
	"net/http"

	"partvault/internal/assets"
	"partvault/internal/assetstore"
	"partvault/internal/logging"
	"partvault/internal/principal"
	"partvault/internal/store"
)

// writeServiceError maps service-layer failures onto the HTTP error envelope.
// Partial failures are not handled here; the asset handlers report those with
// a 207 and per-path detail.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *assets.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Message, map[string]any{"reason": verr.Reason})
		return
	}

	switch {
	case errors.Is(err, store.ErrPartNotFound):
		writeError(w, http.StatusNotFound, "not_found", "part not found", nil)
		return
	case errors.Is(err, store.ErrPartOwnedByAnother):
		writeError(w, http.StatusConflict, "conflict", "slug is owned by another user", nil)
		return
	case errors.Is(err, store.ErrLoginTokenInvalid):
		writeError(w, http.StatusUnauthorized, "invalid_login_token", "login token is invalid or expired", nil)
		return
	case errors.Is(err, principal.ErrEmptyFolderKey):
		writeError(w, http.StatusUnprocessableEntity, "empty_folder_key", "session does not resolve to a folder key", nil)
		return
	}

	switch assetstore.KindOf(err) {
	case assetstore.KindUnauthenticated:
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
	case assetstore.KindForbidden:
		writeError(w, http.StatusForbidden, "forbidden", "folder is owned by another user", nil)
	case assetstore.KindConflict:
		writeError(w, http.StatusConflict, "conflict", "an object already exists at this path", nil)
	case assetstore.KindUnavailable:
		logging.Errorf("storage unavailable: %v", err)
		writeError(w, http.StatusBadGateway, "storage_unavailable", "object storage is unavailable", map[string]any{"error": err.Error()})
	default:
		logging.Errorf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}
