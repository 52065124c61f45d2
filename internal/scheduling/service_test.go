package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/terapiaconect/platform/internal/availability"
	"github.com/terapiaconect/platform/internal/therapists"
	"github.com/terapiaconect/platform/pkg/logging"
)

type stubTherapists struct {
	therapist *therapists.Therapist
	err       error
}

func (s stubTherapists) GetByID(context.Context, string) (*therapists.Therapist, error) {
	return s.therapist, s.err
}

type stubWindows struct {
	windows []*availability.Window
	err     error

	gotDay  int
	gotTime string
}

func (s *stubWindows) FindRecurring(_ context.Context, _ string, dayOfWeek int, hhmm string) ([]*availability.Window, error) {
	s.gotDay = dayOfWeek
	s.gotTime = hhmm
	return s.windows, s.err
}

func configuredTherapist() *therapists.Therapist {
	duration, price := 50, 10000
	return &therapists.Therapist{
		UserID:                 "t-1",
		Name:                   "Maria",
		SessionDurationMinutes: &duration,
		BaseSessionPriceCents:  &price,
		Timezone:               "UTC",
	}
}

func newService(t *testing.T, dir TherapistDirectory, windows AvailabilityFinder, mock pgxmock.PgxPoolIface) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Repository:   NewRepository(mock),
		Therapists:   dir,
		Availability: windows,
		Logger:       logging.Default(),
		Timezone:     "UTC",
	})
	require.NoError(t, err)
	return svc
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// Monday 2025-03-10 at 10:00 UTC, inside a 09:00-12:00 Monday window.
var mondayTen = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func TestCreateAppointmentSucceedsInsideWindow(t *testing.T) {
	mock := newMock(t)
	windows := &stubWindows{windows: []*availability.Window{{StartTime: "09:00", EndTime: "12:00"}}}
	svc := newService(t, stubTherapists{therapist: configuredTherapist()}, windows, mock)

	mock.ExpectQuery("SELECT 1").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"one"}))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery("FROM appointments a").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "therapist_id", "client_id", "scheduled_at", "duration_minutes",
			"price_cents", "status", "created_at", "th_name", "cl_name",
		}).AddRow("a-1", "t-1", "c-1", mondayTen, 50, 10000, StatusPending, time.Now(), "Maria", "Ana"))

	appt, err := svc.CreateAppointment(context.Background(), "t-1", "c-1", mondayTen)
	require.NoError(t, err)
	require.Equal(t, StatusPending, appt.Status)
	require.Equal(t, 50, appt.DurationMinutes)
	require.Equal(t, 10000, appt.PriceCents)
	require.Equal(t, "Maria", appt.TherapistName)

	// Weekday/time derivation: Monday is day 1, local time 10:00.
	require.Equal(t, 1, windows.gotDay)
	require.Equal(t, "10:00", windows.gotTime)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentTherapistNotFound(t *testing.T) {
	mock := newMock(t)
	svc := newService(t, stubTherapists{err: therapists.ErrNotFound}, &stubWindows{}, mock)

	_, err := svc.CreateAppointment(context.Background(), "ghost", "c-1", mondayTen)
	require.ErrorIs(t, err, ErrTherapistNotFound)
}

func TestCreateAppointmentUnconfiguredTherapist(t *testing.T) {
	mock := newMock(t)
	duration := 50
	th := &therapists.Therapist{UserID: "t-1", SessionDurationMinutes: &duration, Timezone: "UTC"}
	svc := newService(t, stubTherapists{therapist: th}, &stubWindows{}, mock)

	_, err := svc.CreateAppointment(context.Background(), "t-1", "c-1", mondayTen)
	require.ErrorIs(t, err, ErrTherapistNotConfigured)
}

func TestCreateAppointmentOutsideAvailability(t *testing.T) {
	mock := newMock(t)
	svc := newService(t, stubTherapists{therapist: configuredTherapist()}, &stubWindows{}, mock)

	// Monday 13:00 with no window covering it.
	_, err := svc.CreateAppointment(context.Background(), "t-1", "c-1",
		time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrOutsideAvailability)
}

func TestCreateAppointmentConflictOnOverlap(t *testing.T) {
	mock := newMock(t)
	windows := &stubWindows{windows: []*availability.Window{{StartTime: "09:00", EndTime: "12:00"}}}
	svc := newService(t, stubTherapists{therapist: configuredTherapist()}, windows, mock)

	mock.ExpectQuery("SELECT 1").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"one"}).AddRow(1))

	_, err := svc.CreateAppointment(context.Background(), "t-1", "c-1", mondayTen)
	require.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentRaceSurfacesAsConflict(t *testing.T) {
	mock := newMock(t)
	windows := &stubWindows{windows: []*availability.Window{{StartTime: "09:00", EndTime: "12:00"}}}
	svc := newService(t, stubTherapists{therapist: configuredTherapist()}, windows, mock)

	// Overlap check sees nothing, but the unique index rejects the insert:
	// a concurrent booking won the slot between check and write.
	mock.ExpectQuery("SELECT 1").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"one"}))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconnUniqueViolation)

	_, err := svc.CreateAppointment(context.Background(), "t-1", "c-1", mondayTen)
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestUpdateStatusRoleChecks(t *testing.T) {
	mock := newMock(t)
	svc := newService(t, stubTherapists{therapist: configuredTherapist()}, &stubWindows{}, mock)

	row := func() *pgxmock.Rows {
		return pgxmock.NewRows([]string{
			"id", "therapist_id", "client_id", "scheduled_at", "duration_minutes",
			"price_cents", "status", "created_at", "th_name", "cl_name",
		}).AddRow("a-1", "t-1", "c-1", mondayTen, 50, 10000, StatusPending, time.Now(), "Maria", "Ana")
	}

	t.Run("stranger is forbidden", func(t *testing.T) {
		mock.ExpectQuery("FROM appointments a").WithArgs(pgxmock.AnyArg()).WillReturnRows(row())
		_, err := svc.UpdateStatus(context.Background(), "a-1", "someone-else", "CLIENT", StatusCancelled)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("participant may cancel", func(t *testing.T) {
		mock.ExpectQuery("FROM appointments a").WithArgs(pgxmock.AnyArg()).WillReturnRows(row())
		mock.ExpectExec("UPDATE appointments SET status").
			WithArgs("a-1", StatusCancelled).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		appt, err := svc.UpdateStatus(context.Background(), "a-1", "c-1", "CLIENT", StatusCancelled)
		require.NoError(t, err)
		require.Equal(t, StatusCancelled, appt.Status)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), "a-1", "c-1", "CLIENT", "POSTPONED")
		require.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestCreateAppointmentVelocityError(t *testing.T) {
	// A nil velocity checker must not block bookings.
	mock := newMock(t)
	windows := &stubWindows{windows: []*availability.Window{{StartTime: "09:00", EndTime: "12:00"}}}
	svc := newService(t, stubTherapists{therapist: configuredTherapist()}, windows, mock)
	svc.velocity = nil

	mock.ExpectQuery("SELECT 1").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"one"}))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery("FROM appointments a").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("reload unavailable"))

	appt, err := svc.CreateAppointment(context.Background(), "t-1", "c-1", mondayTen)
	require.NoError(t, err)
	// Reload failures fall back to the inserted record.
	require.Equal(t, "t-1", appt.TherapistID)
}
