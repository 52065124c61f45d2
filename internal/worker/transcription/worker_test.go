package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/terapiaconect/platform/internal/recordings"
	"github.com/terapiaconect/platform/internal/tokenledger"
)

type stubMedia struct {
	objects map[string]string
}

func (m *stubMedia) Get(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object missing")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type stubStore struct {
	mu          sync.Mutex
	statuses    map[string][]string
	transcripts []*recordings.Transcript
	done        chan struct{}
}

func newStubStore() *stubStore {
	return &stubStore{statuses: map[string][]string{}, done: make(chan struct{}, 4)}
}

func (s *stubStore) UpdateStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = append(s.statuses[id], status)
	if status == recordings.StatusTranscribed || status == recordings.StatusFailed {
		s.done <- struct{}{}
	}
	return nil
}

func (s *stubStore) CreateTranscript(_ context.Context, t *recordings.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = append(s.transcripts, t)
	return nil
}

func (s *stubStore) history(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses[id]...)
}

type stubTranscriber struct {
	text string
	err  error
}

func (t *stubTranscriber) Transcribe(_ context.Context, _, _ string, audio io.Reader) (string, error) {
	_, _ = io.ReadAll(audio)
	return t.text, t.err
}

type stubLedger struct {
	mu     sync.Mutex
	models []string
}

func (l *stubLedger) LogUsage(model string, _ []tokenledger.Message, _ string) tokenledger.Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.models = append(l.models, model)
	return tokenledger.Usage{Model: model}
}

func enqueueJob(t *testing.T, queue recordings.Queue, job recordings.TranscriptionJob) {
	t.Helper()
	body, err := json.Marshal(job)
	if err != nil {
		t.Fatal(err)
	}
	if err := queue.Send(context.Background(), string(body)); err != nil {
		t.Fatal(err)
	}
}

func TestWorkerTranscribesRecording(t *testing.T) {
	queue := recordings.NewMemoryQueue(4)
	media := &stubMedia{objects: map[string]string{"recordings/sess-1/a.mp4": "audio"}}
	store := newStubStore()
	ledger := &stubLedger{}

	worker := NewWorker(queue, media, store, &stubTranscriber{text: "bom dia"}, ledger,
		Config{Workers: 1, ReceiveWaitSecs: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	enqueueJob(t, queue, recordings.TranscriptionJob{
		RecordingID: "rec-1",
		SessionID:   "sess-1",
		ObjectKey:   "recordings/sess-1/a.mp4",
		Filename:    "a.mp4",
	})

	select {
	case <-store.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not finish the job")
	}
	cancel()
	worker.Wait()

	history := store.history("rec-1")
	if len(history) != 2 || history[0] != recordings.StatusTranscribing || history[1] != recordings.StatusTranscribed {
		t.Fatalf("status history = %v", history)
	}
	if len(store.transcripts) != 1 || store.transcripts[0].Content != "bom dia" {
		t.Fatalf("transcripts = %+v", store.transcripts)
	}
	if store.transcripts[0].SessionID != "sess-1" {
		t.Fatalf("transcript session = %q", store.transcripts[0].SessionID)
	}
	if len(ledger.models) != 1 || ledger.models[0] != "whisper-1" {
		t.Fatalf("ledger calls = %v", ledger.models)
	}
}

func TestWorkerMarksFailureAndKeepsRunning(t *testing.T) {
	queue := recordings.NewMemoryQueue(4)
	media := &stubMedia{objects: map[string]string{"good.mp4": "audio"}}
	store := newStubStore()

	worker := NewWorker(queue, media, store, &stubTranscriber{text: "ok"}, nil,
		Config{Workers: 1, ReceiveWaitSecs: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	// First job points at a missing object and must fail; the second must
	// still be processed.
	enqueueJob(t, queue, recordings.TranscriptionJob{
		RecordingID: "rec-bad", SessionID: "sess-1", ObjectKey: "missing.mp4",
	})
	enqueueJob(t, queue, recordings.TranscriptionJob{
		RecordingID: "rec-good", SessionID: "sess-1", ObjectKey: "good.mp4",
	})

	for i := 0; i < 2; i++ {
		select {
		case <-store.done:
		case <-time.After(5 * time.Second):
			t.Fatal("worker stalled")
		}
	}
	cancel()
	worker.Wait()

	badHistory := store.history("rec-bad")
	if badHistory[len(badHistory)-1] != recordings.StatusFailed {
		t.Fatalf("bad history = %v", badHistory)
	}
	goodHistory := store.history("rec-good")
	if goodHistory[len(goodHistory)-1] != recordings.StatusTranscribed {
		t.Fatalf("good history = %v", goodHistory)
	}
}

func TestWorkerDropsMalformedJob(t *testing.T) {
	queue := recordings.NewMemoryQueue(4)
	store := newStubStore()
	worker := NewWorker(queue, &stubMedia{}, store, &stubTranscriber{}, nil,
		Config{Workers: 1}, nil)

	if err := queue.Send(context.Background(), "{not json"); err != nil {
		t.Fatal(err)
	}
	msgs, err := queue.Receive(context.Background(), 1, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("receive: %v %v", msgs, err)
	}
	worker.handleMessage(context.Background(), msgs[0])

	if len(store.statuses) != 0 {
		t.Fatalf("malformed job must not touch recordings: %v", store.statuses)
	}
}
