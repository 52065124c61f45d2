package recordings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/terapiaconect/platform/internal/sessions"
	"github.com/terapiaconect/platform/pkg/logging"
)

// SessionGuard resolves a session with the caller's permissions applied.
type SessionGuard interface {
	Get(ctx context.Context, userID, role, sessionID string) (*sessions.Session, error)
}

// RecordingStore is the slice of the repository the service uses.
type RecordingStore interface {
	CreateRecording(ctx context.Context, rec *Recording) error
	GetRecording(ctx context.Context, id string) (*Recording, error)
	ListBySession(ctx context.Context, sessionID string) ([]*Recording, error)
	LatestTranscript(ctx context.Context, sessionID string) (*Transcript, error)
}

// MediaStore uploads recording bytes.
type MediaStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
}

// Service accepts recording uploads and queues them for transcription.
type Service struct {
	store    RecordingStore
	media    MediaStore
	queue    Queue
	sessions SessionGuard
	logger   *logging.Logger
}

func NewService(store RecordingStore, media MediaStore, queue Queue, guard SessionGuard, logger *logging.Logger) *Service {
	if store == nil {
		panic("recordings: store is required")
	}
	if media == nil {
		panic("recordings: media store is required")
	}
	if queue == nil {
		panic("recordings: queue is required")
	}
	if guard == nil {
		panic("recordings: session guard is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, media: media, queue: queue, sessions: guard, logger: logger}
}

// Upload stores the media object, records it as UPLOADED and enqueues a
// transcription job. The caller must be a participant of the session.
func (s *Service) Upload(ctx context.Context, userID, role, sessionID, filename string, body io.Reader) (*Recording, error) {
	if body == nil {
		return nil, ErrEmptyUpload
	}
	session, err := s.sessions.Get(ctx, userID, role, sessionID)
	if err != nil {
		return nil, err
	}

	filename = SanitizeFilename(filename)
	if filename == "" || filename == "." {
		filename = "recording.mp4"
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("recordings/%s/%s-%s", session.ID, uuid.NewString(), filename)

	if err := s.media.Put(ctx, key, contentType, body); err != nil {
		return nil, err
	}

	rec := &Recording{
		SessionID: session.ID,
		ObjectKey: key,
		Status:    StatusUploaded,
	}
	if err := s.store.CreateRecording(ctx, rec); err != nil {
		return nil, err
	}

	job, err := json.Marshal(TranscriptionJob{
		RecordingID: rec.ID,
		SessionID:   session.ID,
		ObjectKey:   key,
		Filename:    filename,
	})
	if err != nil {
		return nil, fmt.Errorf("recordings: encode job: %w", err)
	}
	if err := s.queue.Send(ctx, string(job)); err != nil {
		// The object and the row exist; a requeue sweep can pick the
		// recording up later, so the upload itself still succeeds.
		s.logger.Error("failed to enqueue transcription job",
			"recording_id", rec.ID, "error", err)
		return rec, nil
	}
	s.logger.Info("recording uploaded",
		"recording_id", rec.ID, "session_id", session.ID, "object_key", key)
	return rec, nil
}

// List returns the recordings of a session, participant-checked.
func (s *Service) List(ctx context.Context, userID, role, sessionID string) ([]*Recording, error) {
	session, err := s.sessions.Get(ctx, userID, role, sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.ListBySession(ctx, session.ID)
}

// Transcript returns a session's newest transcript, participant-checked.
func (s *Service) Transcript(ctx context.Context, userID, role, sessionID string) (*Transcript, error) {
	session, err := s.sessions.Get(ctx, userID, role, sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.LatestTranscript(ctx, session.ID)
}

// SanitizeFilename keeps uploads from smuggling path separators into keys.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.ReplaceAll(name, "..", "")
}
