package logbuf

import (
	"log/slog"
	"strings"
	"time"
)

// Entry is a single log record captured from slog.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   slog.Level     `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Buffer holds the most recent log entries.
type Buffer struct {
	ring *Ring[Entry]
}

// New creates a buffer that holds up to size entries.
func New(size int) *Buffer {
	return &Buffer{ring: NewRing[Entry](size)}
}

// Write appends an entry, evicting the oldest when full.
func (b *Buffer) Write(e Entry) { b.ring.Push(e) }

// Query returns entries at or above minLevel and not before since, oldest
// first. A zero since matches everything; limit <= 0 means no limit.
func (b *Buffer) Query(since time.Time, minLevel slog.Level, limit int) []Entry {
	return b.ring.Select(func(e Entry) bool {
		if !since.IsZero() && e.Time.Before(since) {
			return false
		}
		return e.Level >= minLevel
	}, limit)
}

// ParseLevel maps debug, info, warn and error (any case) to a level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo
	}
	return l
}
