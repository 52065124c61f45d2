package therapists

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/terapiaconect/platform/internal/http/middleware"
	"github.com/terapiaconect/platform/pkg/logging"
)

// Handler handles HTTP requests for therapist profiles
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a new therapists handler
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /therapists requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list therapists", "error", err)
		http.Error(w, "failed to list therapists", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"therapists": list,
		"count":      len(list),
	})
}

// Get handles GET /therapists/{therapistID} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	therapistID := chi.URLParam(r, "therapistID")
	th, err := h.repo.GetByID(r.Context(), therapistID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load therapist", "error", err, "therapist_id", therapistID)
		http.Error(w, "failed to load therapist", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, th)
}

// UpdateMe handles PUT /therapists/me requests
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpmiddleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	th, err := h.repo.Update(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrInvalidDuration), errors.Is(err, ErrInvalidPrice):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update therapist", "error", err, "therapist_id", userID)
			http.Error(w, "failed to update therapist", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("therapist profile updated", "therapist_id", userID)
	writeJSON(w, http.StatusOK, th)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
