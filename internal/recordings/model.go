package recordings

import "time"

const (
	StatusUploaded     = "UPLOADED"
	StatusTranscribing = "TRANSCRIBING"
	StatusTranscribed  = "TRANSCRIBED"
	StatusFailed       = "FAILED"
)

// Recording is one uploaded session audio/video object awaiting or holding
// a transcript.
type Recording struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	ObjectKey string    `json:"object_key"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is the Whisper output for a session recording.
type Transcript struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Content   string    `json:"content"`
	Summary   *string   `json:"summary,omitempty"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptionJob is the queue payload between upload and the worker.
type TranscriptionJob struct {
	RecordingID string `json:"recording_id"`
	SessionID   string `json:"session_id"`
	ObjectKey   string `json:"object_key"`
	Filename    string `json:"filename"`
}
