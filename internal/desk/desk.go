// Package desk serializes access to the assistant and ticket store for
// concurrent front ends and keeps a feed of recent exchanges.
package desk

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/h1v3-io/tkt/internal/assistant"
	"github.com/h1v3-io/tkt/internal/logbuf"
	"github.com/h1v3-io/tkt/internal/ticket"
	"github.com/h1v3-io/tkt/pkg/protocol"
)

// ActivitySize is the number of exchanges kept for the activity feed.
const ActivitySize = 200

// ChangeDetector reports whether persisted data was modified by someone
// other than this process.
type ChangeDetector interface {
	Changed() (bool, error)
}

// Desk wraps one store and its assistant. Every method is a single
// critical section.
type Desk struct {
	mu       sync.Mutex
	store    *ticket.Store
	asst     *assistant.Assistant
	detector ChangeDetector
	activity *logbuf.Ring[protocol.Exchange]
	logger   *slog.Logger
	now      func() time.Time
}

// Config holds Desk dependencies. Detector may be nil.
type Config struct {
	Store     *ticket.Store
	Assistant *assistant.Assistant
	Detector  ChangeDetector
	Logger    *slog.Logger
}

// New creates a Desk. A nil Assistant is built over Store with the rule parser.
func New(cfg Config) *Desk {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	asst := cfg.Assistant
	if asst == nil {
		asst = assistant.New(nil, cfg.Store, logger)
	}
	return &Desk{
		store:    cfg.Store,
		asst:     asst,
		detector: cfg.Detector,
		activity: logbuf.NewRing[protocol.Exchange](ActivitySize),
		logger:   logger.With("component", "desk"),
		now:      time.Now,
	}
}

// Process runs one command received on channel and records the exchange.
func (d *Desk) Process(channel, text string) (protocol.Exchange, error) {
	d.mu.Lock()
	r, err := d.asst.Process(text)
	d.mu.Unlock()
	if err != nil {
		d.logger.Error("process failed", "channel", channel, "error", err)
		return protocol.Exchange{}, fmt.Errorf("desk: process: %w", err)
	}

	ex := protocol.Exchange{
		ID:        uuid.NewString(),
		Channel:   channel,
		UserInput: text,
		Response:  r,
		Time:      d.now(),
	}
	d.activity.Push(ex)
	d.logger.Debug("processed", "channel", channel, "status", r.Status, "action", r.Action)
	return ex, nil
}

// Get returns the response for one ticket id.
func (d *Desk) Get(id string) protocol.Response {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Get(id)
}

// List returns the listing response for q.
func (d *Desk) List(q protocol.Query) protocol.Response {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.List(q)
}

// Export returns every full record in insertion order.
func (d *Desk) Export() []protocol.Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Tickets()
}

// Stats aggregates the collection.
func (d *Desk) Stats() protocol.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Stats()
}

// Seed creates each ticket when the store is empty and reports how many
// were created.
func (d *Desk) Seed(tickets []protocol.Ticket) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.store.Len() > 0 {
		return 0, nil
	}
	n := 0
	for _, t := range tickets {
		r, err := d.store.Create(t.Title, t.Desc, t.Cat, t.Pri)
		if err != nil {
			return n, fmt.Errorf("desk: seed: %w", err)
		}
		if !r.OK() {
			return n, fmt.Errorf("desk: seed %q: %s", t.Title, r.Msg)
		}
		n++
	}
	return n, nil
}

// Activity returns the newest limit exchanges, oldest first. limit <= 0
// returns everything kept.
func (d *Desk) Activity(limit int) []protocol.Exchange {
	return d.activity.Select(nil, limit)
}

// CheckExternalChange reports whether the backing data was modified
// outside this process, logging a warning when it was.
func (d *Desk) CheckExternalChange() (bool, error) {
	if d.detector == nil {
		return false, nil
	}
	d.mu.Lock()
	changed, err := d.detector.Changed()
	d.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("desk: check change: %w", err)
	}
	if changed {
		d.logger.Warn("ticket data modified outside this process; the next save will overwrite it")
	}
	return changed, nil
}
