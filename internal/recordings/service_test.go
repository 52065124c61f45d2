package recordings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/terapiaconect/platform/internal/sessions"
)

type stubGuard struct {
	session *sessions.Session
	err     error
}

func (g *stubGuard) Get(context.Context, string, string, string) (*sessions.Session, error) {
	return g.session, g.err
}

type stubRecordingStore struct {
	created   *Recording
	createErr error
}

func (s *stubRecordingStore) CreateRecording(_ context.Context, rec *Recording) error {
	if s.createErr != nil {
		return s.createErr
	}
	rec.ID = "rec-1"
	s.created = rec
	return nil
}

func (s *stubRecordingStore) GetRecording(context.Context, string) (*Recording, error) {
	return nil, ErrNotFound
}

func (s *stubRecordingStore) ListBySession(context.Context, string) ([]*Recording, error) {
	return nil, nil
}

func (s *stubRecordingStore) LatestTranscript(context.Context, string) (*Transcript, error) {
	return nil, ErrTranscriptNotFound
}

type stubMedia struct {
	key  string
	data []byte
	err  error
}

func (m *stubMedia) Put(_ context.Context, key, _ string, body io.Reader) error {
	if m.err != nil {
		return m.err
	}
	m.key = key
	m.data, _ = io.ReadAll(body)
	return nil
}

func TestUploadStoresObjectAndEnqueuesJob(t *testing.T) {
	guard := &stubGuard{session: &sessions.Session{ID: "sess-1"}}
	store := &stubRecordingStore{}
	media := &stubMedia{}
	queue := NewMemoryQueue(4)
	svc := NewService(store, media, queue, guard, nil)

	rec, err := svc.Upload(context.Background(), "u-1", "THERAPIST", "sess-1",
		"consulta.mp4", bytes.NewReader([]byte("audio-bytes")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if rec.Status != StatusUploaded {
		t.Errorf("status = %q, want UPLOADED", rec.Status)
	}
	if !strings.HasPrefix(media.key, "recordings/sess-1/") || !strings.HasSuffix(media.key, "-consulta.mp4") {
		t.Errorf("object key = %q", media.key)
	}
	if string(media.data) != "audio-bytes" {
		t.Error("uploaded bytes did not reach the media store")
	}

	msgs, err := queue.Receive(context.Background(), 1, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("expected one queued job, got %v (%v)", msgs, err)
	}
	var job TranscriptionJob
	if err := json.Unmarshal([]byte(msgs[0].Body), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.RecordingID != "rec-1" || job.SessionID != "sess-1" || job.ObjectKey != media.key {
		t.Fatalf("job = %+v", job)
	}
}

func TestUploadSanitizesFilename(t *testing.T) {
	guard := &stubGuard{session: &sessions.Session{ID: "sess-1"}}
	media := &stubMedia{}
	svc := NewService(&stubRecordingStore{}, media, NewMemoryQueue(1), guard, nil)

	_, err := svc.Upload(context.Background(), "u-1", "CLIENT", "sess-1",
		"../../etc/passwd", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if strings.Contains(media.key, "..") || strings.Contains(strings.TrimPrefix(media.key, "recordings/sess-1/"), "/") {
		t.Fatalf("object key was not sanitized: %q", media.key)
	}
}

func TestUploadRejectsNonParticipant(t *testing.T) {
	guard := &stubGuard{err: sessions.ErrForbidden}
	svc := NewService(&stubRecordingStore{}, &stubMedia{}, NewMemoryQueue(1), guard, nil)

	_, err := svc.Upload(context.Background(), "u-9", "CLIENT", "sess-1",
		"a.mp4", bytes.NewReader([]byte("x")))
	if !errors.Is(err, sessions.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestUploadSurvivesEnqueueFailure(t *testing.T) {
	guard := &stubGuard{session: &sessions.Session{ID: "sess-1"}}
	store := &stubRecordingStore{}
	queue := NewMemoryQueue(1)
	// Fill the buffer and cancel the context so Send fails immediately.
	_ = queue.Send(context.Background(), "blocker")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(store, &stubMedia{}, queue, guard, nil)
	rec, err := svc.Upload(ctx, "u-1", "CLIENT", "sess-1", "a.mp4", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("upload should succeed despite enqueue failure: %v", err)
	}
	if rec.Status != StatusUploaded {
		t.Fatalf("status = %q", rec.Status)
	}
}
