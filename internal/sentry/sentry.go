// Package sentry reports daemon crashes and error logs to Sentry. Every
// function is a safe no-op until Init succeeds with a DSN.
package sentry

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	gosentry "github.com/getsentry/sentry-go"
)

var enabled atomic.Bool

// Options configures Init.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Init initializes the Sentry SDK. An empty DSN leaves reporting disabled.
func Init(opts Options) error {
	if opts.DSN == "" {
		enabled.Store(false)
		return nil
	}

	err := gosentry.Init(gosentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          "tktd@" + opts.Release,
		AttachStacktrace: true,
		SampleRate:       1.0,
	})
	if err != nil {
		return fmt.Errorf("sentry: init: %w", err)
	}

	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
	})

	enabled.Store(true)
	return nil
}

// IsEnabled returns whether sentry is active.
func IsEnabled() bool {
	return enabled.Load()
}

// Flush waits up to 2 seconds for buffered events to be sent.
func Flush() {
	if !IsEnabled() {
		return
	}
	gosentry.Flush(2 * time.Second)
}

// CapturePanic reports a recovered panic value tagged with the goroutine name.
func CapturePanic(name string, v any) {
	if !IsEnabled() {
		return
	}
	hub := gosentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("goroutine", name)
	})
	hub.Recover(v)
	hub.Flush(2 * time.Second)
}

// CaptureError reports err.
func CaptureError(err error) {
	if !IsEnabled() || err == nil {
		return
	}
	gosentry.CaptureException(err)
}
