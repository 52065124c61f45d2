package tokenledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the aggregate as a single JSON file. Saves go through
// a temp file plus rename so a crash mid-write never leaves a torn file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("tokenledger: file store path is required")
	}
	return &FileStore{path: path}
}

// Load reads the persisted aggregate. A missing file is not an error; it
// returns (nil, nil) so the ledger starts empty on first run.
func (s *FileStore) Load() (*Aggregate, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("tokenledger: read %s: %w", s.path, err)
	}
	var aggregate Aggregate
	if err := json.Unmarshal(raw, &aggregate); err != nil {
		return nil, fmt.Errorf("tokenledger: parse %s: %w", s.path, err)
	}
	return &aggregate, nil
}

func (s *FileStore) Save(aggregate *Aggregate) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("tokenledger: create ledger dir: %w", err)
	}
	raw, err := json.MarshalIndent(aggregate, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenledger: encode aggregate: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("tokenledger: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("tokenledger: rename %s: %w", tmp, err)
	}
	return nil
}
