// Package intent turns free-text commands into a structured action plus
// parameters using a fixed, ordered set of keyword and pattern rules.
//
// Matching is substring based: "add" inside "address" selects the create
// action. That ambiguity is part of the contract and kept as is; a stricter
// parser can replace Rules behind the Parser interface.
package intent

import (
	"errors"
	"regexp"
	"strings"

	"github.com/h1v3-io/tkt/internal/classify"
	"github.com/h1v3-io/tkt/pkg/protocol"
)

// Action is the parsed user intent.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionView   Action = "view"
	ActionClose  Action = "close"
)

// DefaultResolution is used when a close command carries no text after the id.
const DefaultResolution = "resolved"

var (
	// ErrNoAction means the text matched none of the action patterns.
	ErrNoAction = errors.New("no action recognized")
	// ErrMissingTitle means a create command had nothing after the verb.
	ErrMissingTitle = errors.New("missing title")
	// ErrMissingID means an update or close command named no ticket id.
	ErrMissingID = errors.New("missing ticket id")
)

// Intent is the structured form of one command.
type Intent struct {
	Action Action

	// ID is set for update and close, and for single-ticket views.
	ID string

	// Create fields.
	Title    string
	Category protocol.Category
	Priority protocol.Priority

	// Status is the inferred target status of an update; empty when none.
	Status protocol.Status
	// Note is the update note or close resolution; empty when none.
	Note string

	// Query is the listing filter of a view without an id.
	Query protocol.Query
}

// Parser turns text into an Intent.
type Parser interface {
	Parse(text string) (Intent, error)
}

type actionPattern struct {
	re     *regexp.Regexp
	action Action
}

// Tested in order against the lowercased text.
var actionPatterns = []actionPattern{
	{regexp.MustCompile(`create|new|add`), ActionCreate},
	{regexp.MustCompile(`update|modify|change`), ActionUpdate},
	{regexp.MustCompile(`show|view|get|list|find`), ActionView},
	{regexp.MustCompile(`close|resolve|finish|done`), ActionClose},
}

var (
	ticketIDRe = regexp.MustCompile(`T\d{3}`)
	titleRe    = regexp.MustCompile(`(?i)(?:create|new|add)\s+(?:ticket\s+)?(.+)`)
)

// ParseAction returns the action of the first pattern found in text.
func ParseAction(text string) (Action, bool) {
	lower := strings.ToLower(text)
	for _, p := range actionPatterns {
		if p.re.MatchString(lower) {
			return p.action, true
		}
	}
	return "", false
}

// ExtractTicketID returns the first T-number in text, uppercased.
func ExtractTicketID(text string) (string, bool) {
	id := ticketIDRe.FindString(strings.ToUpper(text))
	return id, id != ""
}

// Rules is the keyword/pattern Parser.
type Rules struct{}

// Parse implements Parser.
func (Rules) Parse(text string) (Intent, error) {
	action, ok := ParseAction(text)
	if !ok {
		return Intent{}, ErrNoAction
	}
	switch action {
	case ActionCreate:
		return parseCreate(text)
	case ActionUpdate:
		return parseUpdate(text)
	case ActionView:
		return parseView(text), nil
	case ActionClose:
		return parseClose(text)
	}
	return Intent{}, ErrNoAction
}

func parseCreate(text string) (Intent, error) {
	m := titleRe.FindStringSubmatch(text)
	if m == nil {
		return Intent{}, ErrMissingTitle
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return Intent{}, ErrMissingTitle
	}
	return Intent{
		Action:   ActionCreate,
		Title:    title,
		Category: classify.Category(text),
		Priority: classify.Priority(text),
	}, nil
}

var updateStatusWords = []struct {
	status protocol.Status
	words  []string
}{
	{protocol.StatusProgress, []string{"progress", "prog", "working"}},
	{protocol.StatusDone, []string{"done", "completed", "finished"}},
	{protocol.StatusOpen, []string{"open", "new"}},
}

func parseUpdate(text string) (Intent, error) {
	id, ok := ExtractTicketID(text)
	if !ok {
		return Intent{}, ErrMissingID
	}
	in := Intent{Action: ActionUpdate, ID: id}

	lower := strings.ToLower(text)
	for _, group := range updateStatusWords {
		if containsAny(lower, group.words) {
			in.Status = group.status
			break
		}
	}

	// The note needs "<id> <token> <rest>".
	noteRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(id) + `\s+.*?\s+(.+)`)
	if m := noteRe.FindStringSubmatch(text); m != nil {
		in.Note = strings.TrimSpace(m[1])
	}
	return in, nil
}

func parseView(text string) Intent {
	if id, ok := ExtractTicketID(text); ok {
		return Intent{Action: ActionView, ID: id}
	}

	var q protocol.Query
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "open"):
		q.Status = protocol.StatusOpen
	case strings.Contains(lower, "progress") || strings.Contains(lower, "prog"):
		q.Status = protocol.StatusProgress
	case strings.Contains(lower, "done") || strings.Contains(lower, "closed"):
		q.Status = protocol.StatusDone
	}

	// Medium is never filterable from text.
	switch {
	case classify.HasPriorityKeyword(text, protocol.PriorityHigh):
		q.Priority = protocol.PriorityHigh
	case classify.HasPriorityKeyword(text, protocol.PriorityLow):
		q.Priority = protocol.PriorityLow
	}
	return Intent{Action: ActionView, Query: q}
}

func parseClose(text string) (Intent, error) {
	id, ok := ExtractTicketID(text)
	if !ok {
		return Intent{}, ErrMissingID
	}
	in := Intent{Action: ActionClose, ID: id, Note: DefaultResolution}

	resRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(id) + `[,\s]+(.+)`)
	if m := resRe.FindStringSubmatch(text); m != nil {
		in.Note = strings.TrimSpace(m[1])
	}
	return in, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
