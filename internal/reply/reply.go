// Package reply builds the compact responses returned by every desk
// operation. Messages are deliberately terse.
package reply

import "github.com/h1v3-io/tkt/pkg/protocol"

// Code names an error in the response taxonomy.
type Code string

const (
	MissingTitle    Code = "missing_title"
	InvalidID       Code = "invalid_id"
	InvalidPriority Code = "invalid_priority"
	InvalidCategory Code = "invalid_category"
	InvalidStatus   Code = "invalid_status"
	TicketExists    Code = "ticket_exists"
	StorageError    Code = "storage_error"
	Invalid         Code = "invalid"
	NotFoundCode    Code = "not_found"
)

// Action labels of successful mutations.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionClosed  = "closed"
)

var messages = map[Code]string{
	MissingTitle:    "title required",
	InvalidID:       "invalid ticket id",
	InvalidPriority: "priority must be 1-3",
	InvalidCategory: "invalid category",
	InvalidStatus:   "invalid status",
	TicketExists:    "ticket id exists",
	StorageError:    "storage failed",
	Invalid:         "invalid input",
	NotFoundCode:    "ticket not found",
}

// Message returns the short text for code.
func Message(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return "unknown error"
}

// Error returns an "er" response for code. not_found answers "nf".
func Error(code Code) protocol.Response {
	if code == NotFoundCode {
		return NotFound()
	}
	return protocol.Response{Status: protocol.StatusError, Msg: Message(code)}
}

// NotFound returns the "nf" response.
func NotFound() protocol.Response {
	return protocol.Response{Status: protocol.StatusNotFound, Msg: Message(NotFoundCode)}
}

// Success wraps data in an ok response tagged with action.
func Success(action string, data any) protocol.Response {
	return protocol.Response{Status: protocol.StatusOK, Action: action, Data: data}
}

// Data returns an ok response carrying data with no action tag.
func Data(data any) protocol.Response {
	return protocol.Response{Status: protocol.StatusOK, Data: data}
}

// List returns a listing response. count is always the length of items.
func List(items []protocol.Summary) protocol.Response {
	if items == nil {
		items = []protocol.Summary{}
	}
	n := len(items)
	return protocol.Response{Status: protocol.StatusOK, Count: &n, Data: items}
}
