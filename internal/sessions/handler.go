package sessions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/terapiaconect/platform/internal/http/middleware"
	"github.com/terapiaconect/platform/pkg/logging"
)

// Handler handles HTTP requests for video sessions
type Handler struct {
	service  *Service
	presence *PresenceHub
	logger   *logging.Logger
}

// NewHandler creates a new sessions handler
func NewHandler(service *Service, presence *PresenceHub, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, presence: presence, logger: logger}
}

// Start handles POST /sessions requests
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	session, err := h.service.Start(r.Context(), claims.Subject, claims.Role, req.AppointmentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrNotConfirmed):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, ErrAlreadyStarted):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrForbidden):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			h.logger.Error("session start failed", "error", err, "appointment_id", req.AppointmentID)
			http.Error(w, "session start failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /sessions/{sessionID} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.service.Get(r.Context(), claims.Subject, claims.Role, sessionID)
	if err != nil {
		h.respondServiceError(w, err, sessionID)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Join handles POST /sessions/{sessionID}/join requests
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	grant, err := h.service.Join(r.Context(), claims.Subject, claims.Name, claims.Role, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEnded):
			http.Error(w, err.Error(), http.StatusGone)
		default:
			h.respondServiceError(w, err, sessionID)
		}
		return
	}
	writeJSON(w, http.StatusOK, grant)
}

// End handles POST /sessions/{sessionID}/end requests
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.service.End(r.Context(), claims.Subject, claims.Role, sessionID); err != nil {
		h.respondServiceError(w, err, sessionID)
		return
	}
	if h.presence != nil {
		h.presence.CloseSession(sessionID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusEnded})
}

// Insights handles GET /sessions/{sessionID}/insights requests
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpmiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	insights, err := h.service.Insights(r.Context(), claims.Subject, claims.Role, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoTranscript):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.respondServiceError(w, err, sessionID)
		}
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, sessionID string) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		h.logger.Error("session request failed", "error", err, "session_id", sessionID)
		http.Error(w, "session request failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
