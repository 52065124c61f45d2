package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/terapiaconect/platform/internal/accounts"
	"github.com/terapiaconect/platform/internal/scheduling"
	"github.com/terapiaconect/platform/pkg/logging"
)

// UserDirectory resolves the email addresses behind an appointment.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*accounts.User, error)
}

// Service sends booking notifications to both sides of an appointment.
// Every method is fire-and-forget from the scheduler's point of view:
// notification failures are logged, never propagated.
type Service struct {
	sender   EmailSender
	users    UserDirectory
	timezone *time.Location
	logger   *logging.Logger
}

func NewService(sender EmailSender, users UserDirectory, timezone *time.Location, logger *logging.Logger) *Service {
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	if timezone == nil {
		timezone = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sender: sender, users: users, timezone: timezone, logger: logger}
}

// NotifyBookingCreated emails the client a confirmation and the therapist a
// heads-up about the new appointment.
func (s *Service) NotifyBookingCreated(ctx context.Context, appt *scheduling.Appointment) {
	if appt == nil || s.users == nil {
		return
	}
	local := appt.ScheduledAt.In(s.timezone)
	when := local.Format("02/01/2006 15:04")
	price := fmt.Sprintf("R$ %d,%02d", appt.PriceCents/100, appt.PriceCents%100)

	s.sendTo(ctx, appt.ClientID, EmailMessage{
		Subject: "Sessão agendada",
		Body: fmt.Sprintf(
			"Olá %s,\n\nSua sessão com %s está agendada para %s (%d minutos, %s).\n\nAté lá!",
			appt.ClientName, appt.TherapistName, when, appt.DurationMinutes, price),
	})
	s.sendTo(ctx, appt.TherapistID, EmailMessage{
		Subject: "Nova sessão agendada",
		Body: fmt.Sprintf(
			"Olá %s,\n\n%s agendou uma sessão para %s (%d minutos).",
			appt.TherapistName, appt.ClientName, when, appt.DurationMinutes),
	})
}

func (s *Service) sendTo(ctx context.Context, userID string, msg EmailMessage) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("booking notification skipped: user lookup failed",
			"user_id", userID, "error", err)
		return
	}
	msg.To = user.Email
	msg.ToName = user.Name
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("booking notification failed",
			"user_id", userID, "error", err)
	}
}
