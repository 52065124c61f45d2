package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/terapiaconect/platform/internal/accounts"
	"github.com/terapiaconect/platform/internal/scheduling"
	"github.com/terapiaconect/platform/internal/video"
	"github.com/terapiaconect/platform/pkg/logging"
)

var sessionsTracer = otel.Tracer("terapiaconect.internal.sessions")

// AppointmentDirectory looks up the appointment a session is backing.
type AppointmentDirectory interface {
	GetByID(ctx context.Context, id string) (*scheduling.Appointment, error)
}

// SessionStore is the slice of the repository the service uses.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	GetByAppointment(ctx context.Context, appointmentID string) (*Session, error)
	End(ctx context.Context, id string, endedAt time.Time) error
}

// TranscriptFinder returns the newest transcript text for a session.
type TranscriptFinder interface {
	LatestBySession(ctx context.Context, sessionID string) (string, error)
}

// Insighter produces the AI views of a transcript.
type Insighter interface {
	Summarize(ctx context.Context, transcript string) (string, error)
	GenerateInsights(ctx context.Context, transcript string) (string, error)
}

// Service runs the session lifecycle: start, join, end, insights.
type Service struct {
	store        SessionStore
	appointments AppointmentDirectory
	provider     video.Provider
	transcripts  TranscriptFinder
	insighter    Insighter
	logger       *logging.Logger
	now          func() time.Time
}

func NewService(store SessionStore, appointments AppointmentDirectory, provider video.Provider, transcripts TranscriptFinder, insighter Insighter, logger *logging.Logger) *Service {
	if store == nil {
		panic("sessions: store is required")
	}
	if appointments == nil {
		panic("sessions: appointment directory is required")
	}
	if provider == nil {
		panic("sessions: video provider is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:        store,
		appointments: appointments,
		provider:     provider,
		transcripts:  transcripts,
		insighter:    insighter,
		logger:       logger,
		now:          time.Now,
	}
}

// Start opens a session for a confirmed appointment: creates a provider room
// and persists the session as ACTIVE. Only the appointment's participants or
// an admin may start it.
func (s *Service) Start(ctx context.Context, userID, role, appointmentID string) (*Session, error) {
	ctx, span := sessionsTracer.Start(ctx, "sessions.Start")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", appointmentID))

	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("sessions: load appointment: %w", err)
	}
	if err := s.authorize(appointment, userID, role); err != nil {
		return nil, err
	}
	if appointment.Status != scheduling.StatusConfirmed {
		return nil, ErrNotConfirmed
	}

	room, err := s.provider.CreateRoom(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("sessions: create room: %w", err)
	}

	startedAt := s.now().UTC()
	session := &Session{
		AppointmentID: appointmentID,
		Provider:      s.provider.Name(),
		RoomName:      room.ID,
		Status:        StatusActive,
		StartedAt:     &startedAt,
	}
	if err := s.store.Create(ctx, session); err != nil {
		if errors.Is(err, ErrAlreadyStarted) {
			// Lost a race with the other participant; hand back theirs.
			if existing, getErr := s.store.GetByAppointment(ctx, appointmentID); getErr == nil {
				return existing, nil
			}
			return nil, ErrAlreadyStarted
		}
		return nil, err
	}
	s.logger.Info("session started",
		"session_id", session.ID,
		"appointment_id", appointmentID,
		"provider", session.Provider)
	return session, nil
}

// Join mints a provider join grant for a participant. Therapists join as
// hosts.
func (s *Service) Join(ctx context.Context, userID, userName, role, sessionID string) (*JoinResponse, error) {
	session, appointment, err := s.loadAuthorized(ctx, userID, role, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusEnded {
		return nil, ErrEnded
	}

	grant, err := s.provider.JoinToken(ctx, &video.Room{
		ID:       session.RoomName,
		Name:     session.RoomName,
		Provider: session.Provider,
	}, video.Participant{
		UserID: userID,
		Name:   userName,
		Host:   userID == appointment.TherapistID,
	})
	if err != nil {
		return nil, fmt.Errorf("sessions: mint join token: %w", err)
	}
	return &JoinResponse{
		SessionID: session.ID,
		Provider:  session.Provider,
		RoomName:  session.RoomName,
		Token:     grant.Token,
		URL:       grant.URL,
	}, nil
}

// End marks the session ENDED.
func (s *Service) End(ctx context.Context, userID, role, sessionID string) error {
	session, _, err := s.loadAuthorized(ctx, userID, role, sessionID)
	if err != nil {
		return err
	}
	if session.Status == StatusEnded {
		return nil
	}
	return s.store.End(ctx, sessionID, s.now().UTC())
}

// Get returns one session, participant-checked.
func (s *Service) Get(ctx context.Context, userID, role, sessionID string) (*Session, error) {
	session, _, err := s.loadAuthorized(ctx, userID, role, sessionID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SessionInsights bundles the AI views of a session transcript.
type SessionInsights struct {
	Summary  string `json:"summary"`
	Insights string `json:"insights"`
}

// Insights summarizes the session's latest transcript. Only the therapist or
// an admin may read clinical insights.
func (s *Service) Insights(ctx context.Context, userID, role, sessionID string) (*SessionInsights, error) {
	if s.transcripts == nil || s.insighter == nil {
		return nil, ErrNoTranscript
	}
	session, appointment, err := s.loadAuthorized(ctx, userID, role, sessionID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(role, accounts.RoleAdmin) && userID != appointment.TherapistID {
		return nil, ErrForbidden
	}

	transcript, err := s.transcripts.LatestBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	summary, err := s.insighter.Summarize(ctx, transcript)
	if err != nil {
		return nil, err
	}
	insights, err := s.insighter.GenerateInsights(ctx, transcript)
	if err != nil {
		return nil, err
	}
	return &SessionInsights{Summary: summary, Insights: insights}, nil
}

func (s *Service) loadAuthorized(ctx context.Context, userID, role, sessionID string) (*Session, *scheduling.Appointment, error) {
	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	appointment, err := s.appointments.GetByID(ctx, session.AppointmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("sessions: load appointment: %w", err)
	}
	if err := s.authorize(appointment, userID, role); err != nil {
		return nil, nil, err
	}
	return session, appointment, nil
}

func (s *Service) authorize(appointment *scheduling.Appointment, userID, role string) error {
	if strings.EqualFold(role, accounts.RoleAdmin) {
		return nil
	}
	if userID == appointment.TherapistID || userID == appointment.ClientID {
		return nil
	}
	return ErrForbidden
}
