package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/terapiaconect/platform/internal/accounts"
	"github.com/terapiaconect/platform/internal/scheduling"
)

type captureSender struct {
	sent []EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

type stubUsers struct {
	users map[string]*accounts.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*accounts.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, accounts.ErrUserNotFound
}

func testAppointment() *scheduling.Appointment {
	return &scheduling.Appointment{
		ID:              "appt-1",
		TherapistID:     "t-1",
		ClientID:        "c-1",
		TherapistName:   "Dra. Ana",
		ClientName:      "João",
		ScheduledAt:     time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC),
		DurationMinutes: 50,
		PriceCents:      15000,
	}
}

func TestNotifyBookingCreatedEmailsBothSides(t *testing.T) {
	sender := &captureSender{}
	users := &stubUsers{users: map[string]*accounts.User{
		"t-1": {ID: "t-1", Name: "Dra. Ana", Email: "ana@example.com"},
		"c-1": {ID: "c-1", Name: "João", Email: "joao@example.com"},
	}}
	saoPaulo, _ := time.LoadLocation("America/Sao_Paulo")
	svc := NewService(sender, users, saoPaulo, nil)

	svc.NotifyBookingCreated(context.Background(), testAppointment())

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sender.sent))
	}
	client, therapist := sender.sent[0], sender.sent[1]
	if client.To != "joao@example.com" {
		t.Errorf("client email to %q", client.To)
	}
	// 13:00 UTC is 10:00 in São Paulo.
	if !strings.Contains(client.Body, "10:00") {
		t.Errorf("client body lacks local time: %q", client.Body)
	}
	if !strings.Contains(client.Body, "R$ 150,00") {
		t.Errorf("client body lacks price: %q", client.Body)
	}
	if therapist.To != "ana@example.com" {
		t.Errorf("therapist email to %q", therapist.To)
	}
	if !strings.Contains(therapist.Body, "João") {
		t.Errorf("therapist body lacks client name: %q", therapist.Body)
	}
}

func TestNotifyBookingCreatedAbsorbsFailures(t *testing.T) {
	sender := &captureSender{err: errors.New("sendgrid down")}
	users := &stubUsers{users: map[string]*accounts.User{
		"t-1": {Email: "ana@example.com"},
		"c-1": {Email: "joao@example.com"},
	}}
	svc := NewService(sender, users, nil, nil)

	// Must not panic or propagate.
	svc.NotifyBookingCreated(context.Background(), testAppointment())
}

func TestNotifySkipsUnknownUsers(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, &stubUsers{users: map[string]*accounts.User{}}, nil, nil)

	svc.NotifyBookingCreated(context.Background(), testAppointment())
	if len(sender.sent) != 0 {
		t.Fatalf("sent %d emails, want 0", len(sender.sent))
	}
}
