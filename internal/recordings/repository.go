package recordings

import (
	"context"
	"errors"
	"fmt"

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

// Repository stores recordings and transcripts in the relational database.
type Repository struct {
	pool db
}

func NewRepository(pool db) *Repository {
	if pool == nil {
		panic("recordings: pgx pool required")
	}
	return &Repository{pool: pool}
}

// CreateRecording inserts a recording row.
func (r *Repository) CreateRecording(ctx context.Context, rec *Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	query := `
		INSERT INTO recordings (id, session_id, object_key, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.SessionID,
		rec.ObjectKey,
		rec.Status,
	).Scan(&rec.CreatedAt); err != nil {
		return fmt.Errorf("recordings: insert failed: %w", err)
	}
	return nil
}

// GetRecording fetches a recording by primary key.
func (r *Repository) GetRecording(ctx context.Context, id string) (*Recording, error) {
	query := `
		SELECT id, session_id, object_key, status, created_at
		FROM recordings
		WHERE id = $1
	`
	var rec Recording
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.ObjectKey,
		&rec.Status,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("recordings: select failed: %w", err)
	}
	return &rec, nil
}

// ListBySession returns a session's recordings, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]*Recording, error) {
	query := `
		SELECT id, session_id, object_key, status, created_at
		FROM recordings
		WHERE session_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("recordings: select failed: %w", err)
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		var rec Recording
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ObjectKey, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("recordings: scan failed: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// UpdateStatus moves a recording through the transcription lifecycle.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE recordings SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("recordings: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTranscript inserts a transcript row.
func (r *Repository) CreateTranscript(ctx context.Context, t *Transcript) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	query := `
		INSERT INTO transcripts (id, session_id, content, summary, model)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		t.ID,
		t.SessionID,
		t.Content,
		t.Summary,
		t.Model,
	).Scan(&t.CreatedAt); err != nil {
		return fmt.Errorf("recordings: insert transcript failed: %w", err)
	}
	return nil
}

// LatestTranscript returns a session's newest transcript.
func (r *Repository) LatestTranscript(ctx context.Context, sessionID string) (*Transcript, error) {
	query := `
		SELECT id, session_id, content, summary, model, created_at
		FROM transcripts
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var t Transcript
	if err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&t.ID,
		&t.SessionID,
		&t.Content,
		&t.Summary,
		&t.Model,
		&t.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("recordings: select transcript failed: %w", err)
	}
	return &t, nil
}

// LatestBySession returns the newest transcript text for a session. This is
// the shape the sessions insights path consumes.
func (r *Repository) LatestBySession(ctx context.Context, sessionID string) (string, error) {
	t, err := r.LatestTranscript(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return t.Content, nil
}
