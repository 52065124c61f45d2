package availability

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/terapiaconect/platform/internal/http/middleware"
	"github.com/terapiaconect/platform/pkg/logging"
)

// Handler handles HTTP requests for availability windows
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a new availability handler
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /availability requests (therapist only)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	therapistID, ok := httpmiddleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	window, err := h.repo.Create(r.Context(), therapistID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDay),
			errors.Is(err, ErrInvalidTime),
			errors.Is(err, ErrStartAfterEnd),
			errors.Is(err, ErrMissingDate):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to create window", "error", err, "therapist_id", therapistID)
			http.Error(w, "failed to create availability", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("availability window created",
		"therapist_id", therapistID,
		"day_of_week", window.DayOfWeek,
		"start", window.StartTime,
		"end", window.EndTime,
	)
	writeJSON(w, http.StatusCreated, window)
}

// ListForTherapist handles GET /therapists/{therapistID}/availability requests (public)
func (h *Handler) ListForTherapist(w http.ResponseWriter, r *http.Request) {
	therapistID := chi.URLParam(r, "therapistID")
	if therapistID == "" {
		http.Error(w, "missing therapist id", http.StatusBadRequest)
		return
	}

	windows, err := h.repo.ListByTherapist(r.Context(), therapistID)
	if err != nil {
		h.logger.Error("failed to list windows", "error", err, "therapist_id", therapistID)
		http.Error(w, "failed to list availability", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"availability": windows,
		"count":        len(windows),
	})
}

// Delete handles DELETE /availability/{windowID} requests (owner only)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	therapistID, ok := httpmiddleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	windowID := chi.URLParam(r, "windowID")

	if err := h.repo.Delete(r.Context(), therapistID, windowID); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete window", "error", err, "window_id", windowID)
		http.Error(w, "failed to delete availability", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
