package ticket

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend kinds accepted by NewBackend.
const (
	KindJSON   = "json"
	KindSQLite = "sqlite"
)

// NewBackend returns the backend of the given kind stored at path. An empty
// kind selects the JSON file. Callers close SQLite backends when done.
func NewBackend(kind, path string) (Backend, error) {
	switch kind {
	case "", KindJSON:
		return NewJSONFile(path), nil
	case KindSQLite:
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("ticket: create data dir: %w", err)
			}
		}
		return NewSQLiteBackend(path)
	}
	return nil, fmt.Errorf("ticket: unknown backend %q", kind)
}
