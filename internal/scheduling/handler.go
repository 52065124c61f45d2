package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/terapiaconect/platform/internal/http/middleware"
	"github.com/terapiaconect/platform/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new scheduling handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create handles POST /appointments requests (client books a slot)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	clientID, ok := httpmiddleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TherapistID == "" || req.ScheduledAt.IsZero() {
		http.Error(w, "therapist_id and scheduled_at are required", http.StatusBadRequest)
		return
	}

	appt, err := h.service.CreateAppointment(r.Context(), req.TherapistID, clientID, req.ScheduledAt)
	if err != nil {
		switch {
		case errors.Is(err, ErrTherapistNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrTherapistNotConfigured), errors.Is(err, ErrOutsideAvailability):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, ErrSlotTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrTooManyBookings):
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		default:
			h.logger.Error("booking failed", "error", err, "client_id", clientID)
			http.Error(w, "booking failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

// List handles GET /appointments requests (own appointments)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpmiddleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	appts, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "user_id", userID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

// UpdateStatus handles PATCH /appointments/{appointmentID}/status requests
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	appointmentID := chi.URLParam(r, "appointmentID")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.UpdateStatus(r.Context(), appointmentID, claims.Subject, claims.Role, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrInvalidStatus):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrForbidden):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			h.logger.Error("status update failed", "error", err, "appointment_id", appointmentID)
			http.Error(w, "status update failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, appt)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
