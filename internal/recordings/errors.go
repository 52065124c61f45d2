package recordings

import "errors"

var (
	ErrNotFound           = errors.New("recordings: recording not found")
	ErrTranscriptNotFound = errors.New("recordings: transcript not found")
	ErrEmptyUpload        = errors.New("recordings: upload body is empty")
)
