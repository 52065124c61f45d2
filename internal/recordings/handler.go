package recordings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/terapiaconect/platform/internal/http/middleware"
	"github.com/terapiaconect/platform/internal/sessions"
	"github.com/terapiaconect/platform/pkg/logging"
)

const maxUploadBytes = 512 << 20 // 512 MiB

// Handler handles HTTP requests for session recordings
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new recordings handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Upload handles POST /sessions/{sessionID}/recordings requests
// (multipart form with a "file" part).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file part is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rec, err := h.service.Upload(r.Context(), claims.Subject, claims.Role, sessionID, header.Filename, file)
	if err != nil {
		h.respondServiceError(w, err, sessionID)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// List handles GET /sessions/{sessionID}/recordings requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	recs, err := h.service.List(r.Context(), claims.Subject, claims.Role, sessionID)
	if err != nil {
		h.respondServiceError(w, err, sessionID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recordings": recs,
		"count":      len(recs),
	})
}

// Transcript handles GET /sessions/{sessionID}/transcript requests
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	transcript, err := h.service.Transcript(r.Context(), claims.Subject, claims.Role, sessionID)
	if err != nil {
		h.respondServiceError(w, err, sessionID)
		return
	}
	writeJSON(w, http.StatusOK, transcript)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, sessionID string) {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, sessions.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrTranscriptNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrEmptyUpload):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("recording request failed", "error", err, "session_id", sessionID)
		http.Error(w, "recording request failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
