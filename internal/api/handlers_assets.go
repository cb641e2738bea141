package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"partvault/internal/assets"
	"partvault/internal/assetstore"
	"partvault/internal/models"
	"partvault/internal/principal"
)

// multipartOverhead is slack on top of the upload limit for the multipart
// framing and form fields.
const multipartOverhead = 1 << 20

func (s *server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	start := time.Now()
	resp, err := s.assets.List(r.Context(), sess, opts)
	s.metrics.ObserveAssetOp("list", opStatus(err), time.Since(start))
	if err != nil {
		s.countDenied(err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	cand, data, ok := s.readUploadFile(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.assets.Upload(r.Context(), sess, cand, bytes.NewReader(data))
	s.metrics.ObserveAssetOp("upload", opStatus(err), time.Since(start))
	if err != nil {
		s.countUploadFailure(err)
		writeServiceError(w, err)
		return
	}
	s.metrics.AddUploadBytes(cand.Size)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *server) handleRemoveAssets(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	var req models.AssetRemoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "paths is required", nil)
		return
	}

	start := time.Now()
	resp, err := s.assets.Remove(r.Context(), sess, req.Paths)
	s.metrics.ObserveAssetOp("remove", opStatus(err), time.Since(start))
	switch {
	case assetstore.KindOf(err) == assetstore.KindPartialFailure:
		writeJSON(w, http.StatusMultiStatus, resp)
	case err != nil:
		s.countDenied(err)
		writeServiceError(w, err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *server) handleEnsureViewSlots(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}

	start := time.Now()
	resp, err := s.assets.EnsureViewSlots(r.Context(), sess)
	s.metrics.ObserveAssetOp("ensure_view_slots", opStatus(err), time.Since(start))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	for _, slot := range resp.Slots {
		if slot.Error != "" {
			status = http.StatusMultiStatus
			break
		}
	}
	writeJSON(w, status, resp)
}

func (s *server) handleUploadViewImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	view, err := assets.ParseViewType(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	cand, data, ok := s.readUploadFile(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.assets.UploadView(r.Context(), sess, slug, view, cand, bytes.NewReader(data))
	s.metrics.ObserveAssetOp("upload_view", opStatus(err), time.Since(start))
	if err != nil {
		s.countUploadFailure(err)
		writeServiceError(w, err)
		return
	}
	s.metrics.AddUploadBytes(cand.Size)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *server) handleRemoveViewImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a signed-in session is required", nil)
		return
	}
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	view, err := assets.ParseViewType(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	start := time.Now()
	resp, err := s.assets.RemoveView(r.Context(), sess, slug, view)
	s.metrics.ObserveAssetOp("remove_view", opStatus(err), time.Since(start))
	switch {
	case assetstore.KindOf(err) == assetstore.KindPartialFailure:
		writeJSON(w, http.StatusMultiStatus, resp)
	case err != nil:
		s.countDenied(err)
		writeServiceError(w, err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// readUploadFile pulls the "file" part out of a multipart request, applies the
// size cap while reading, and verifies the payload really is an image. On
// failure it writes the error response and returns ok=false.
func (s *server) readUploadFile(w http.ResponseWriter, r *http.Request) (assets.Candidate, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, assets.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(assets.MaxUploadBytes + multipartOverhead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form with a file field", nil)
		return assets.Candidate{}, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file field is required", nil)
		return assets.Candidate{}, nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, assets.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to read uploaded file", nil)
		return assets.Candidate{}, nil, false
	}

	cand := assets.Candidate{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
	}
	if err := assets.Validate(cand); err != nil {
		s.countUploadFailure(err)
		writeServiceError(w, err)
		return assets.Candidate{}, nil, false
	}
	if _, err := assets.SniffImage(data); err != nil {
		s.countUploadFailure(err)
		writeServiceError(w, err)
		return assets.Candidate{}, nil, false
	}
	return cand, data, true
}

func parseListOptions(r *http.Request) (assetstore.ListOptions, error) {
	var opts assetstore.ListOptions
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return opts, errors.New("offset must be a non-negative integer")
		}
		opts.Offset = v
	}
	switch q.Get("sortBy") {
	case "", string(assetstore.SortCreatedAt):
		opts.SortBy = assetstore.SortCreatedAt
	case string(assetstore.SortName):
		opts.SortBy = assetstore.SortName
	default:
		return opts, errors.New("sortBy must be created_at or name")
	}
	switch q.Get("order") {
	case "", "desc":
	case "asc":
		opts.Ascending = true
	default:
		return opts, errors.New("order must be asc or desc")
	}
	return opts, nil
}

func opStatus(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := assetstore.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func (s *server) countDenied(err error) {
	if assetstore.KindOf(err) == assetstore.KindForbidden || errors.Is(err, principal.ErrEmptyFolderKey) {
		s.metrics.IncOwnershipDenied()
	}
}

func (s *server) countUploadFailure(err error) {
	var verr *assets.ValidationError
	if errors.As(err, &verr) {
		s.metrics.IncUploadRejected(verr.Reason)
		return
	}
	s.countDenied(err)
}
