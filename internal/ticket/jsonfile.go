package ticket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/zeebo/blake3"
)

// JSONFile stores the collection as one indented JSON object keyed by
// ticket id. Every Save replaces the file atomically.
type JSONFile struct {
	path string

	mu     sync.Mutex
	digest [32]byte
	known  bool
}

// NewJSONFile returns a backend for path. The parent directory is created
// on first Save.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the file location.
func (f *JSONFile) Path() string { return f.path }

func (f *JSONFile) Load() (*Collection, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("ticket json: read: %w", err)
	}
	f.remember(data)

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoData
	}
	c := NewCollection()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	for pair := c.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			return nil, fmt.Errorf("%w: %s: null record %q", ErrCorrupt, f.path, pair.Key)
		}
		if pair.Value.ID == "" {
			pair.Value.ID = pair.Key
		}
	}
	return c, nil
}

func (f *JSONFile) Save(c *Collection) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("ticket json: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("ticket json: mkdir: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("ticket json: write: %w", err)
	}
	f.remember(data)
	return nil
}

// Changed reports whether the file on disk differs from what this backend
// last read or wrote. A file that was never seen and does not exist is
// unchanged.
func (f *JSONFile) Changed() (bool, error) {
	data, err := os.ReadFile(f.path)
	f.mu.Lock()
	defer f.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return f.known, nil
	}
	if err != nil {
		return false, fmt.Errorf("ticket json: read: %w", err)
	}
	if !f.known {
		return true, nil
	}
	return blake3.Sum256(data) != f.digest, nil
}

func (f *JSONFile) remember(data []byte) {
	sum := blake3.Sum256(data)
	f.mu.Lock()
	f.digest = sum
	f.known = true
	f.mu.Unlock()
}
