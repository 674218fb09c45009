// Package ticket owns the ticket collection: id allocation, validation,
// filtering and synchronous persistence through a Backend.
package ticket

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/h1v3-io/tkt/internal/reply"
	"github.com/h1v3-io/tkt/pkg/protocol"
)

// Collection maps ticket id to record, iterating in insertion order.
type Collection = orderedmap.OrderedMap[string, *protocol.Ticket]

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return orderedmap.New[string, *protocol.Ticket]()
}

var (
	// ErrNoData is returned by Backend.Load when nothing has been stored yet.
	ErrNoData = errors.New("no stored tickets")
	// ErrCorrupt is returned by Backend.Load when stored data cannot be decoded.
	ErrCorrupt = errors.New("stored tickets unreadable")
)

// Backend persists the whole collection. Save always rewrites everything.
type Backend interface {
	Load() (*Collection, error)
	Save(c *Collection) error
}

// Store is the only writer of the ticket collection. It is not safe for
// concurrent use; callers serialize access (see internal/desk).
type Store struct {
	backend Backend
	tickets *Collection
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the clock used for creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the collection from backend. Missing, empty and undecodable
// data all start an empty store; any other load failure is returned.
func Open(backend Backend, opts ...Option) (*Store, error) {
	s := &Store{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "ticket")

	c, err := backend.Load()
	switch {
	case err == nil:
		s.tickets = c
	case errors.Is(err, ErrNoData):
		s.logger.Info("no stored tickets, starting empty")
		s.tickets = NewCollection()
	case errors.Is(err, ErrCorrupt):
		s.logger.Warn("stored tickets unreadable, starting empty", "error", err)
		s.tickets = NewCollection()
	default:
		return nil, fmt.Errorf("ticket: open: %w", err)
	}
	s.logger.Debug("tickets loaded", "count", s.tickets.Len())
	return s, nil
}

// Len returns the number of stored tickets.
func (s *Store) Len() int { return s.tickets.Len() }

// Create adds an open ticket dated today. Validation failures come back as
// error responses. A returned error means the id space is unusable.
func (s *Store) Create(title, desc string, cat protocol.Category, pri protocol.Priority) (protocol.Response, error) {
	title = protocol.Truncate(strings.TrimSpace(title), protocol.MaxTitleLen)
	if title == "" {
		return reply.Error(reply.MissingTitle), nil
	}
	if !cat.Valid() {
		return reply.Error(reply.InvalidCategory), nil
	}
	if !pri.Valid() {
		return reply.Error(reply.InvalidPriority), nil
	}

	id, err := nextID(s.tickets)
	if err != nil {
		s.logger.Error("cannot allocate ticket id", "error", err)
		return protocol.Response{}, fmt.Errorf("ticket: create: %w", err)
	}
	if _, exists := s.tickets.Get(id); exists {
		return reply.Error(reply.TicketExists), nil
	}

	t := &protocol.Ticket{
		ID:      id,
		Title:   title,
		Desc:    protocol.Truncate(desc, protocol.MaxDescLen),
		Cat:     cat,
		Pri:     pri,
		Stat:    protocol.StatusOpen,
		Created: s.now().Format(time.DateOnly),
	}
	s.tickets.Set(id, t)
	if err := s.persist(); err != nil {
		s.tickets.Delete(id)
		return reply.Error(reply.StorageError), nil
	}

	s.logger.Info("ticket created", "id", id, "cat", cat, "pri", pri)
	return reply.Success(reply.ActionCreated, *t), nil
}

// Update overwrites the status and/or resolution of a ticket. An empty
// status or resolution leaves that field untouched.
func (s *Store) Update(id string, status protocol.Status, resolution string) protocol.Response {
	t, ok := s.tickets.Get(id)
	if !ok {
		return reply.Error(reply.InvalidID)
	}
	if status != "" && !status.Valid() {
		return reply.Error(reply.InvalidStatus)
	}

	prev := *t
	result := protocol.UpdateResult{ID: id}
	if status != "" {
		t.Stat = status
		result.Stat = status
	}
	if resolution != "" {
		t.Res = protocol.Truncate(resolution, protocol.MaxResolutionLen)
		result.Res = t.Res
	}
	if err := s.persist(); err != nil {
		*t = prev
		return reply.Error(reply.StorageError)
	}

	s.logger.Info("ticket updated", "id", id, "stat", t.Stat)
	return reply.Success(reply.ActionUpdated, result)
}

// Close marks a ticket done and sets its resolution, even when empty.
func (s *Store) Close(id, resolution string) protocol.Response {
	t, ok := s.tickets.Get(id)
	if !ok {
		return reply.Error(reply.InvalidID)
	}

	prev := *t
	t.Stat = protocol.StatusDone
	t.Res = protocol.Truncate(resolution, protocol.MaxResolutionLen)
	if err := s.persist(); err != nil {
		*t = prev
		return reply.Error(reply.StorageError)
	}

	s.logger.Info("ticket closed", "id", id)
	return reply.Success(reply.ActionClosed, protocol.CloseResult{ID: id, Stat: t.Stat, Res: t.Res})
}

// Get returns the full record of one ticket.
func (s *Store) Get(id string) protocol.Response {
	t, ok := s.tickets.Get(id)
	if !ok {
		return reply.Error(reply.InvalidID)
	}
	return reply.Data(*t)
}

// Lookup returns a copy of the ticket with the given id.
func (s *Store) Lookup(id string) (protocol.Ticket, bool) {
	t, ok := s.tickets.Get(id)
	if !ok {
		return protocol.Ticket{}, false
	}
	return *t, true
}

// List returns summaries of the first matches of q in insertion order.
// The limit applies after filtering.
func (s *Store) List(q protocol.Query) protocol.Response {
	limit := q.EffectiveLimit()
	var items []protocol.Summary
	for pair := s.tickets.Oldest(); pair != nil && len(items) < limit; pair = pair.Next() {
		if q.Matches(pair.Value) {
			items = append(items, pair.Value.Summary())
		}
	}
	return reply.List(items)
}

// Tickets returns copies of every record in insertion order.
func (s *Store) Tickets() []protocol.Ticket {
	out := make([]protocol.Ticket, 0, s.tickets.Len())
	for pair := s.tickets.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, *pair.Value)
	}
	return out
}

// Stats aggregates the collection by status, category and priority.
func (s *Store) Stats() protocol.Stats {
	st := protocol.Stats{
		ByStatus:   make(map[protocol.Status]int, len(protocol.Statuses)),
		ByCategory: make(map[protocol.Category]int, len(protocol.Categories)),
		ByPriority: make(map[protocol.Priority]int, len(protocol.Priorities)),
	}
	for _, v := range protocol.Statuses {
		st.ByStatus[v] = 0
	}
	for _, v := range protocol.Categories {
		st.ByCategory[v] = 0
	}
	for _, v := range protocol.Priorities {
		st.ByPriority[v] = 0
	}
	for pair := s.tickets.Oldest(); pair != nil; pair = pair.Next() {
		t := pair.Value
		st.Total++
		st.ByStatus[t.Stat]++
		st.ByCategory[t.Cat]++
		st.ByPriority[t.Pri]++
	}
	st.HighPriority = st.ByPriority[protocol.PriorityHigh]
	return st
}

func (s *Store) persist() error {
	if err := s.backend.Save(s.tickets); err != nil {
		s.logger.Error("save tickets failed", "error", err)
		return err
	}
	return nil
}
