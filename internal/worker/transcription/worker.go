// Package transcription drains the transcription queue: it pulls uploaded
// recordings out of object storage, runs them through Whisper and stores the
// resulting transcript.
package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/terapiaconect/platform/internal/recordings"
	"github.com/terapiaconect/platform/internal/tokenledger"
	"github.com/terapiaconect/platform/pkg/logging"
)

// Transcriber is the Whisper slice of the OpenAI client.
type Transcriber interface {
	Transcribe(ctx context.Context, model, filename string, audio io.Reader) (string, error)
}

// MediaFetcher streams a recording object.
type MediaFetcher interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// TranscriptStore is the slice of the recordings repository the worker uses.
type TranscriptStore interface {
	UpdateStatus(ctx context.Context, id, status string) error
	CreateTranscript(ctx context.Context, t *recordings.Transcript) error
}

// UsageLogger records Whisper spend in the token ledger.
type UsageLogger interface {
	LogUsage(model string, messages []tokenledger.Message, outputText string) tokenledger.Usage
}

// Config tunes the worker pool.
type Config struct {
	Workers          int
	ReceiveBatchSize int
	ReceiveWaitSecs  int
	WhisperModel     string
}

// Worker consumes transcription jobs until its context is canceled.
type Worker struct {
	queue       recordings.Queue
	media       MediaFetcher
	store       TranscriptStore
	transcriber Transcriber
	ledger      UsageLogger
	cfg         Config
	logger      *logging.Logger
	wg          sync.WaitGroup
}

func NewWorker(queue recordings.Queue, media MediaFetcher, store TranscriptStore, transcriber Transcriber, ledger UsageLogger, cfg Config, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("transcription: queue is required")
	}
	if media == nil {
		panic("transcription: media fetcher is required")
	}
	if store == nil {
		panic("transcription: transcript store is required")
	}
	if transcriber == nil {
		panic("transcription: transcriber is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.ReceiveBatchSize <= 0 {
		cfg.ReceiveBatchSize = 5
	}
	if cfg.ReceiveWaitSecs <= 0 {
		cfg.ReceiveWaitSecs = 10
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = "whisper-1"
	}
	return &Worker{
		queue:       queue,
		media:       media,
		store:       store,
		transcriber: transcriber,
		ledger:      ledger,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start launches the worker pool.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("transcription worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("transcription worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.ReceiveBatchSize, w.cfg.ReceiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive transcription jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg recordings.QueueMessage) {
	var job recordings.TranscriptionJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		w.logger.Error("failed to decode transcription job", "error", err)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}
	if job.RecordingID == "" || job.ObjectKey == "" {
		w.logger.Error("transcription job missing fields", "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	w.logger.Info("worker processing recording",
		"recording_id", job.RecordingID,
		"session_id", job.SessionID,
		"msg_id", msg.ID,
	)

	if err := w.transcribe(ctx, job); err != nil {
		w.logger.Error("transcription failed",
			"recording_id", job.RecordingID, "error", err)
		if storeErr := w.store.UpdateStatus(ctx, job.RecordingID, recordings.StatusFailed); storeErr != nil {
			w.logger.Error("failed to mark recording FAILED",
				"recording_id", job.RecordingID, "error", storeErr)
		}
		// The job is consumed either way; retrying a deterministic
		// failure would spin forever.
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *Worker) transcribe(ctx context.Context, job recordings.TranscriptionJob) error {
	if err := w.store.UpdateStatus(ctx, job.RecordingID, recordings.StatusTranscribing); err != nil {
		return err
	}

	audio, err := w.media.Get(ctx, job.ObjectKey)
	if err != nil {
		return err
	}
	defer audio.Close()

	filename := job.Filename
	if filename == "" {
		filename = "recording.mp4"
	}
	text, err := w.transcriber.Transcribe(ctx, w.cfg.WhisperModel, filename, audio)
	if err != nil {
		return err
	}

	if w.ledger != nil {
		w.ledger.LogUsage(w.cfg.WhisperModel, nil, text)
	}

	if err := w.store.CreateTranscript(ctx, &recordings.Transcript{
		SessionID: job.SessionID,
		Content:   text,
		Model:     w.cfg.WhisperModel,
	}); err != nil {
		return err
	}
	if err := w.store.UpdateStatus(ctx, job.RecordingID, recordings.StatusTranscribed); err != nil {
		return err
	}
	w.logger.Info("recording transcribed",
		"recording_id", job.RecordingID, "session_id", job.SessionID, "chars", len(text))
	return nil
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete transcription job", "error", err)
	}
}
