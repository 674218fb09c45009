package logbuf

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	got := r.Select(nil, 0)
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Fatalf("expected [3 4 5], got %v", got)
	}
	if r.Len() != 3 {
		t.Errorf("len = %d", r.Len())
	}
}

func TestRingSelectLimitKeepsNewest(t *testing.T) {
	r := NewRing[int](10)
	for i := 0; i < 8; i++ {
		r.Push(i)
	}
	even := r.Select(func(v int) bool { return v%2 == 0 }, 2)
	if len(even) != 2 || even[0] != 4 || even[1] != 6 {
		t.Fatalf("expected [4 6], got %v", even)
	}
}

func TestRingZeroSize(t *testing.T) {
	r := NewRing[string](0)
	r.Push("a")
	r.Push("b")
	if got := r.Select(nil, 0); len(got) != 1 || got[0] != "b" {
		t.Fatalf("got %v", got)
	}
}

func TestBufferQuery(t *testing.T) {
	buf := New(10)
	now := time.Now()

	buf.Write(Entry{Time: now, Level: slog.LevelDebug, Message: "debug"})
	buf.Write(Entry{Time: now.Add(time.Second), Level: slog.LevelInfo, Message: "info"})
	buf.Write(Entry{Time: now.Add(2 * time.Second), Level: slog.LevelWarn, Message: "warn"})
	buf.Write(Entry{Time: now.Add(3 * time.Second), Level: slog.LevelError, Message: "error"})

	if got := buf.Query(time.Time{}, slog.LevelWarn, 0); len(got) != 2 || got[0].Message != "warn" {
		t.Errorf("level filter: %v", got)
	}
	if got := buf.Query(now.Add(time.Second), slog.LevelDebug, 0); len(got) != 3 {
		t.Errorf("since filter: expected 3, got %d", len(got))
	}
	if got := buf.Query(time.Time{}, slog.LevelDebug, 1); len(got) != 1 || got[0].Message != "error" {
		t.Errorf("limit: %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHandlerCapturesBelowInnerLevel(t *testing.T) {
	buf := New(10)
	var out bytes.Buffer
	inner := slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(NewHandler(inner, buf))

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")

	if got := buf.Query(time.Time{}, slog.LevelDebug, 0); len(got) != 3 {
		t.Fatalf("expected 3 entries in buffer, got %d", len(got))
	}
	if strings.Contains(out.String(), "info msg") || !strings.Contains(out.String(), "warn msg") {
		t.Errorf("inner handler level not respected:\n%s", out.String())
	}
}

func TestHandlerAttrs(t *testing.T) {
	buf := New(10)
	logger := slog.New(NewHandler(slog.NewTextHandler(io.Discard, nil), buf)).
		With("component", "ticket").
		WithGroup("req")

	logger.Info("saved", "id", "T001", "error", errors.New("disk full"), slog.Group("meta", "n", 2))

	got := buf.Query(time.Time{}, slog.LevelDebug, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	attrs := got[0].Attrs
	if attrs["component"] != "ticket" {
		t.Errorf("component = %v", attrs["component"])
	}
	if attrs["req.id"] != "T001" {
		t.Errorf("grouped id = %v (attrs %v)", attrs["req.id"], attrs)
	}
	if attrs["req.error"] != "disk full" {
		t.Errorf("error should be stringified, got %#v", attrs["req.error"])
	}
	if attrs["req.meta.n"] != int64(2) {
		t.Errorf("nested group = %#v", attrs["req.meta.n"])
	}
}

func TestHandlerNoAttrs(t *testing.T) {
	buf := New(2)
	slog.New(NewHandler(slog.NewTextHandler(io.Discard, nil), buf)).Info("plain")
	if got := buf.Query(time.Time{}, slog.LevelDebug, 0); got[0].Attrs != nil {
		t.Errorf("expected nil attrs, got %v", got[0].Attrs)
	}
}
