package therapists

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the subset of pgxpool.Pool the repository needs (mockable in tests).
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores therapist profiles in the relational database.
type Repository struct {
	pool db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool db) *Repository {
	if pool == nil {
		panic("therapists: pgx pool required")
	}
	return &Repository{pool: pool}
}

const selectColumns = `
	SELECT t.user_id, u.name, u.email, t.bio,
	       t.session_duration_minutes, t.base_session_price_cents,
	       t.timezone, u.created_at
	FROM therapists t
	JOIN users u ON u.id = t.user_id
`

// GetByID fetches one therapist profile.
func (r *Repository) GetByID(ctx context.Context, userID string) (*Therapist, error) {
	row := r.pool.QueryRow(ctx, selectColumns+` WHERE t.user_id = $1`, userID)
	return scanTherapist(row)
}

// List returns all therapist profiles ordered by name.
func (r *Repository) List(ctx context.Context) ([]*Therapist, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` ORDER BY u.name`)
	if err != nil {
		return nil, fmt.Errorf("therapists: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Therapist
	for rows.Next() {
		th, err := scanTherapist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

// EnsureProfile inserts an empty profile row for a new therapist account.
func (r *Repository) EnsureProfile(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO therapists (user_id, timezone)
		VALUES ($1, 'America/Sao_Paulo')
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("therapists: ensure profile: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of req to a therapist profile.
func (r *Repository) Update(ctx context.Context, userID string, req *UpdateRequest) (*Therapist, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE therapists SET
			bio = COALESCE($2, bio),
			session_duration_minutes = COALESCE($3, session_duration_minutes),
			base_session_price_cents = COALESCE($4, base_session_price_cents),
			timezone = COALESCE($5, timezone)
		WHERE user_id = $1
	`, userID, req.Bio, req.SessionDurationMinutes, req.BaseSessionPriceCents, req.Timezone)
	if err != nil {
		return nil, fmt.Errorf("therapists: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, userID)
}

func scanTherapist(row pgx.Row) (*Therapist, error) {
	var th Therapist
	if err := row.Scan(
		&th.UserID,
		&th.Name,
		&th.Email,
		&th.Bio,
		&th.SessionDurationMinutes,
		&th.BaseSessionPriceCents,
		&th.Timezone,
		&th.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("therapists: select failed: %w", err)
	}
	return &th, nil
}
