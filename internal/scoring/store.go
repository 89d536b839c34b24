package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ModelStore persists fitted model state. Absence of a model is a normal
// condition reported as (nil, nil), not an error.
type ModelStore interface {
	Load() (*ModelState, error)
	Save(state *ModelState) error
}

// FileModelStore stores the fitted state as JSON at a well-known path.
type FileModelStore struct {
	path string
}

// NewFileModelStore builds a store rooted at path.
func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{path: path}
}

// Load reads and decodes the fitted state.
func (s *FileModelStore) Load() (*ModelState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model state: %w", err)
	}
	var state ModelState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode model state: %w", err)
	}
	return &state, nil
}

// Save encodes and writes the fitted state, creating parent directories.
func (s *FileModelStore) Save(state *ModelState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write model state: %w", err)
	}
	return nil
}
