package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/terapiaconect/platform/internal/availability"
	"github.com/terapiaconect/platform/internal/observability/metrics"
	"github.com/terapiaconect/platform/internal/therapists"
	"github.com/terapiaconect/platform/pkg/logging"
)

var schedulingTracer = otel.Tracer("terapiaconect.internal.scheduling")

// TherapistDirectory looks up therapist profiles.
type TherapistDirectory interface {
	GetByID(ctx context.Context, userID string) (*therapists.Therapist, error)
}

// AvailabilityFinder looks up recurring windows covering a weekday and time.
type AvailabilityFinder interface {
	FindRecurring(ctx context.Context, therapistID string, dayOfWeek int, hhmm string) ([]*availability.Window, error)
}

// Notifier delivers booking notifications. Implementations must be
// best-effort; the service never fails a booking on a notification error.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, appt *Appointment)
}

// Service decides whether a requested (therapist, timestamp) pair is bookable
// and creates the appointment if so.
type Service struct {
	repo       *Repository
	therapists TherapistDirectory
	windows    AvailabilityFinder
	velocity   *VelocityChecker
	notifier   Notifier
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
	location   *time.Location
}

// ServiceConfig wires the scheduler's collaborators.
type ServiceConfig struct {
	Repository   *Repository
	Therapists   TherapistDirectory
	Availability AvailabilityFinder
	Velocity     *VelocityChecker
	Notifier     Notifier
	Metrics      *metrics.BookingMetrics
	Logger       *logging.Logger

	// Timezone is the default IANA zone used to derive the weekday and
	// "HH:MM" of a request when the therapist has no zone of their own.
	Timezone string
}

// NewService constructs a scheduling service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repository == nil {
		panic("scheduling: repository required")
	}
	if cfg.Therapists == nil || cfg.Availability == nil {
		panic("scheduling: therapist and availability lookups required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Sao_Paulo"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduling: invalid timezone %q: %w", cfg.Timezone, err)
	}
	return &Service{
		repo:       cfg.Repository,
		therapists: cfg.Therapists,
		windows:    cfg.Availability,
		velocity:   cfg.Velocity,
		notifier:   cfg.Notifier,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		location:   loc,
	}, nil
}

// CreateAppointment validates a proposed booking against the therapist's
// declared availability and existing bookings, then persists it with status
// PENDING, copying the therapist's current price and duration.
//
// Failure modes, checked in order: ErrTherapistNotFound,
// ErrTherapistNotConfigured, ErrOutsideAvailability, ErrTooManyBookings,
// ErrSlotTaken.
func (s *Service) CreateAppointment(ctx context.Context, therapistID, clientID string, requestedAt time.Time) (*Appointment, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.create_appointment")
	defer span.End()
	span.SetAttributes(
		attribute.String("terapiaconect.therapist_id", therapistID),
		attribute.String("terapiaconect.client_id", clientID),
	)
	start := time.Now()
	defer func() { s.metrics.ObserveLatency(time.Since(start).Seconds()) }()

	therapist, err := s.therapists.GetByID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, therapists.ErrNotFound) {
			s.metrics.ObserveAttempt("not_found")
			return nil, ErrTherapistNotFound
		}
		span.RecordError(err)
		s.metrics.ObserveAttempt("error")
		return nil, err
	}

	if !therapist.Configured() {
		s.metrics.ObserveAttempt("not_configured")
		return nil, ErrTherapistNotConfigured
	}

	// Weekday and time-of-day are evaluated against the therapist's local
	// calendar, not the server's or the client's.
	local := requestedAt.In(s.locationFor(therapist))
	weekday := int(local.Weekday())
	hhmm := local.Format("15:04")

	windows, err := s.windows.FindRecurring(ctx, therapistID, weekday, hhmm)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveAttempt("error")
		return nil, err
	}
	if len(windows) == 0 {
		s.metrics.ObserveAttempt("outside_availability")
		return nil, ErrOutsideAvailability
	}

	if s.velocity != nil {
		result, err := s.velocity.Check(ctx, clientID)
		if err == nil && !result.Allowed {
			s.metrics.ObserveAttempt("velocity_exceeded")
			return nil, ErrTooManyBookings
		}
	}

	duration := *therapist.SessionDurationMinutes
	overlap, err := s.repo.HasOverlap(ctx, therapistID, requestedAt, duration)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveAttempt("error")
		return nil, err
	}
	if overlap {
		s.metrics.ObserveAttempt("conflict")
		return nil, ErrSlotTaken
	}

	appt := &Appointment{
		TherapistID:     therapistID,
		ClientID:        clientID,
		ScheduledAt:     requestedAt,
		DurationMinutes: duration,
		PriceCents:      *therapist.BaseSessionPriceCents,
		Status:          StatusPending,
	}
	// The storage-level unique index closes the race between the overlap
	// check and this insert; a concurrent booking surfaces as ErrSlotTaken.
	if err := s.repo.Insert(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveAttempt("conflict")
			return nil, ErrSlotTaken
		}
		span.RecordError(err)
		s.metrics.ObserveAttempt("error")
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, appt.ID)
	if err != nil {
		// The booking is durable; fall back to the un-denormalized record.
		s.logger.Error("failed to reload appointment", "error", err, "appointment_id", appt.ID)
		created = appt
	}

	s.metrics.ObserveAttempt("created")
	s.logger.Info("appointment created",
		"appointment_id", created.ID,
		"therapist_id", therapistID,
		"client_id", clientID,
		"scheduled_at", requestedAt,
	)
	if s.notifier != nil {
		s.notifier.NotifyBookingCreated(ctx, created)
	}
	return created, nil
}

// ListForUser returns the user's appointments as either participant.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Appointment, error) {
	return s.repo.ListForUser(ctx, userID)
}

// UpdateStatus transitions an appointment's status on behalf of a participant
// or an admin.
func (s *Service) UpdateStatus(ctx context.Context, id, userID, role, status string) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != "ADMIN" && appt.TherapistID != userID && appt.ClientID != userID {
		return nil, ErrForbidden
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	appt.Status = status
	s.logger.Info("appointment status updated", "appointment_id", id, "status", status, "by", userID)
	return appt, nil
}

func (s *Service) locationFor(th *therapists.Therapist) *time.Location {
	if th.Timezone != "" {
		if loc, err := time.LoadLocation(th.Timezone); err == nil {
			return loc
		}
	}
	return s.location
}
