package sessions

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

// Repository stores sessions in the relational database.
type Repository struct {
	pool db
}

func NewRepository(pool db) *Repository {
	if pool == nil {
		panic("sessions: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Create inserts a session row. The unique constraint on appointment_id
// rejects a second session for the same appointment.
func (r *Repository) Create(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	query := `
		INSERT INTO sessions (id, appointment_id, provider, room_name, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query,
		session.ID,
		session.AppointmentID,
		session.Provider,
		session.RoomName,
		session.Status,
		session.StartedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyStarted
		}
		return fmt.Errorf("sessions: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a session by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, appointment_id, provider, room_name, status, started_at, ended_at
		FROM sessions
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByAppointment fetches the session backing an appointment, if any.
func (r *Repository) GetByAppointment(ctx context.Context, appointmentID string) (*Session, error) {
	query := `
		SELECT id, appointment_id, provider, room_name, status, started_at, ended_at
		FROM sessions
		WHERE appointment_id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, appointmentID))
}

// End marks a session ENDED.
func (r *Repository) End(ctx context.Context, id string, endedAt time.Time) error {
	query := `
		UPDATE sessions
		SET status = $2, ended_at = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, StatusEnded, endedAt)
	if err != nil {
		return fmt.Errorf("sessions: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*Session, error) {
	var session Session
	if err := row.Scan(
		&session.ID,
		&session.AppointmentID,
		&session.Provider,
		&session.RoomName,
		&session.Status,
		&session.StartedAt,
		&session.EndedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessions: select failed: %w", err)
	}
	return &session, nil
}
