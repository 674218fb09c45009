package sentry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gosentry "github.com/getsentry/sentry-go"
)

// Handler wraps an slog.Handler and forwards records to Sentry. Errors
// become events; warnings and info become breadcrumbs.
type Handler struct {
	inner slog.Handler
}

// NewHandler creates a Handler delegating to inner.
func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	err := h.inner.Handle(ctx, r)
	if !IsEnabled() || r.Level < slog.LevelInfo {
		return err
	}

	msg := format(r)
	switch {
	case r.Level >= slog.LevelError:
		gosentry.CaptureMessage(msg)
	case r.Level >= slog.LevelWarn:
		gosentry.AddBreadcrumb(&gosentry.Breadcrumb{Level: gosentry.LevelWarning, Category: "log", Message: msg})
	default:
		gosentry.AddBreadcrumb(&gosentry.Breadcrumb{Level: gosentry.LevelInfo, Category: "log", Message: msg})
	}
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}

// format renders the message followed by its record-level attributes.
func format(r slog.Record) string {
	var b strings.Builder
	b.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Resolve().Any())
		return true
	})
	return b.String()
}
