package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Field limits, counted in characters.
const (
	MaxTitleLen        = 50
	MaxDescLen         = 200
	MaxResolutionLen   = 100
	MaxSummaryTitleLen = 30
)

// DefaultLimit is the number of matches a Query returns when Limit is unset.
const DefaultLimit = 10

// Category classifies what a ticket is about.
type Category string

const (
	CategoryCode  Category = "code"
	CategoryInfra Category = "infra"
	CategoryDoc   Category = "doc"
	CategoryOther Category = "other"
)

// Categories lists every category in table order.
var Categories = []Category{CategoryCode, CategoryInfra, CategoryDoc, CategoryOther}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCode, CategoryInfra, CategoryDoc, CategoryOther:
		return true
	}
	return false
}

// ParseCategory converts s to a Category, rejecting unknown values.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Priority is 1 (high), 2 (medium) or 3 (low).
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// Priorities lists every priority in table order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is 1, 2 or 3.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Label returns the short human name of the priority.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "med"
	case PriorityLow:
		return "low"
	}
	return "p" + strconv.Itoa(int(p))
}

// ParsePriority accepts "1".."3" or the labels high, med/medium and low.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "1", "high":
		return PriorityHigh, nil
	case "2", "med", "medium":
		return PriorityMedium, nil
	case "3", "low":
		return PriorityLow, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v := Priority(n)
	if !v.Valid() {
		return fmt.Errorf("priority must be 1-3, got %d", n)
	}
	*p = v
	return nil
}

// Status is the lifecycle state of a ticket. Any state may follow any other.
type Status string

const (
	StatusOpen     Status = "open"
	StatusProgress Status = "prog"
	StatusDone     Status = "done"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusOpen, StatusProgress, StatusDone}

// Valid reports whether s is open, prog or done.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus converts s to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Ticket is a stored ticket record. Field names are abbreviated on the wire.
type Ticket struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Desc    string   `json:"desc"`
	Cat     Category `json:"cat"`
	Pri     Priority `json:"pri"`
	Stat    Status   `json:"stat"`
	Created string   `json:"created"` // YYYY-MM-DD
	Res     string   `json:"res,omitempty"`
}

// Summary returns the reduced listing shape of t.
func (t *Ticket) Summary() Summary {
	return Summary{
		ID:    t.ID,
		Title: Truncate(t.Title, MaxSummaryTitleLen),
		Cat:   t.Cat,
		Pri:   t.Pri,
	}
}

// Summary is the listing projection of a ticket.
type Summary struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Cat   Category `json:"cat"`
	Pri   Priority `json:"pri"`
}

// Query filters a ticket listing. Zero-valued fields are unset.
type Query struct {
	Status   Status   `json:"status,omitempty"`
	Category Category `json:"category,omitempty"`
	Priority Priority `json:"priority,omitempty"`
	Limit    int      `json:"limit,omitempty"` // <= 0 means DefaultLimit
}

// Matches reports whether t satisfies every filter set on q.
func (q Query) Matches(t *Ticket) bool {
	if q.Status != "" && t.Stat != q.Status {
		return false
	}
	if q.Category != "" && t.Cat != q.Category {
		return false
	}
	if q.Priority != 0 && t.Pri != q.Priority {
		return false
	}
	return true
}

// EffectiveLimit returns Limit, or DefaultLimit when Limit is unset.
func (q Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
