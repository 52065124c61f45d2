package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the subset of pgxpool.Pool the repository needs (mockable in tests).
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for appointments.
type Repository struct {
	pool db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool db) *Repository {
	if pool == nil {
		panic("scheduling: pgx pool required")
	}
	return &Repository{pool: pool}
}

// HasOverlap reports whether a non-cancelled appointment for the therapist
// overlaps the [scheduledAt, scheduledAt+duration) interval.
func (r *Repository) HasOverlap(ctx context.Context, therapistID string, scheduledAt time.Time, durationMinutes int) (bool, error) {
	upper := scheduledAt.Add(time.Duration(durationMinutes) * time.Minute)
	var one int
	err := r.pool.QueryRow(ctx, `
		SELECT 1
		FROM appointments
		WHERE therapist_id = $1
		  AND status <> 'CANCELLED'
		  AND scheduled_at < $3
		  AND scheduled_at + make_interval(mins => duration_minutes) > $2
		LIMIT 1
	`, therapistID, scheduledAt, upper).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scheduling: overlap lookup failed: %w", err)
	}
	return true, nil
}

// Insert persists a new appointment. The partial unique index on
// (therapist_id, scheduled_at) for non-cancelled rows backs the slot
// invariant; a unique violation maps to ErrSlotTaken so racing bookings and
// application-level conflicts surface identically.
func (r *Repository) Insert(ctx context.Context, appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, therapist_id, client_id, scheduled_at, duration_minutes, price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, appt.ID, appt.TherapistID, appt.ClientID, appt.ScheduledAt, appt.DurationMinutes, appt.PriceCents, appt.Status).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return fmt.Errorf("scheduling: insert failed: %w", err)
	}
	appt.CreatedAt = createdAt
	return nil
}

const detailColumns = `
	SELECT a.id, a.therapist_id, a.client_id, a.scheduled_at,
	       a.duration_minutes, a.price_cents, a.status, a.created_at,
	       th.name, cl.name
	FROM appointments a
	JOIN users th ON th.id = a.therapist_id
	JOIN users cl ON cl.id = a.client_id
`

// GetByID fetches an appointment with denormalized participant names.
func (r *Repository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, detailColumns+` WHERE a.id = $1`, id))
}

// ListForUser returns appointments where the user is either participant,
// newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, detailColumns+`
		WHERE a.therapist_id = $1 OR a.client_id = $1
		ORDER BY a.scheduled_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

// UpdateStatus transitions an appointment. Appointments are never deleted;
// cancellation is a status change.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("scheduling: status update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	if err := row.Scan(
		&appt.ID,
		&appt.TherapistID,
		&appt.ClientID,
		&appt.ScheduledAt,
		&appt.DurationMinutes,
		&appt.PriceCents,
		&appt.Status,
		&appt.CreatedAt,
		&appt.TherapistName,
		&appt.ClientName,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scheduling: select failed: %w", err)
	}
	return &appt, nil
}
