package availability

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

// Repository stores availability windows in the relational database.
type Repository struct {
	pool db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool db) *Repository {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Create inserts a new window for the therapist.
func (r *Repository) Create(ctx context.Context, therapistID string, req *CreateRequest) (*Window, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	recurring := req.Recurring == nil || *req.Recurring
	id := uuid.NewString()
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO availability (id, therapist_id, day_of_week, start_time, end_time, recurring, specific_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, id, therapistID, req.DayOfWeek, req.StartTime, req.EndTime, recurring, req.SpecificDate).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("availability: insert failed: %w", err)
	}

	return &Window{
		ID:           id,
		TherapistID:  therapistID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Recurring:    recurring,
		SpecificDate: req.SpecificDate,
		CreatedAt:    createdAt,
	}, nil
}

// ListByTherapist returns the therapist's windows ordered by day and start.
func (r *Repository) ListByTherapist(ctx context.Context, therapistID string) ([]*Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, therapist_id, day_of_week, start_time, end_time, recurring, specific_date, created_at
		FROM availability
		WHERE therapist_id = $1
		ORDER BY day_of_week, start_time
	`, therapistID)
	if err != nil {
		return nil, fmt.Errorf("availability: list failed: %w", err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

// FindRecurring returns the therapist's recurring windows on a weekday that
// contain the "HH:MM" time, bounds inclusive.
func (r *Repository) FindRecurring(ctx context.Context, therapistID string, dayOfWeek int, hhmm string) ([]*Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, therapist_id, day_of_week, start_time, end_time, recurring, specific_date, created_at
		FROM availability
		WHERE therapist_id = $1
		  AND day_of_week = $2
		  AND recurring
		  AND start_time <= $3
		  AND end_time >= $3
	`, therapistID, dayOfWeek, hhmm)
	if err != nil {
		return nil, fmt.Errorf("availability: window lookup failed: %w", err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

// Delete removes a window owned by the therapist.
func (r *Repository) Delete(ctx context.Context, therapistID, windowID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability WHERE id = $1 AND therapist_id = $2
	`, windowID, therapistID)
	if err != nil {
		return fmt.Errorf("availability: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWindows(rows pgx.Rows) ([]*Window, error) {
	var out []*Window
	for rows.Next() {
		var w Window
		if err := rows.Scan(
			&w.ID,
			&w.TherapistID,
			&w.DayOfWeek,
			&w.StartTime,
			&w.EndTime,
			&w.Recurring,
			&w.SpecificDate,
			&w.CreatedAt,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("availability: scan failed: %w", err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}
