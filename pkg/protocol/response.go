package protocol

import "time"

// ResponseStatus is the short outcome tag of a Response.
type ResponseStatus string

const (
	StatusOK       ResponseStatus = "ok"
	StatusNotFound ResponseStatus = "nf"
	StatusError    ResponseStatus = "er"
	// StatusUpdated is part of the wire vocabulary but updates answer "ok".
	StatusUpdated ResponseStatus = "up"
)

// Response is the compact result of every desk operation.
type Response struct {
	Status ResponseStatus `json:"status"`
	Action string         `json:"action,omitempty"`
	Count  *int           `json:"count,omitempty"`
	Data   any            `json:"data,omitempty"`
	Msg    string         `json:"msg,omitempty"`
}

// OK reports whether the response carries status "ok".
func (r Response) OK() bool { return r.Status == StatusOK }

// UpdateResult is the data of an "updated" response: the id plus the fields
// that were actually changed.
type UpdateResult struct {
	ID   string `json:"id"`
	Stat Status `json:"stat,omitempty"`
	Res  string `json:"res,omitempty"`
}

// CloseResult is the data of a "closed" response.
type CloseResult struct {
	ID   string `json:"id"`
	Stat Status `json:"stat"`
	Res  string `json:"res"`
}

// Stats aggregates the ticket collection.
type Stats struct {
	Total        int              `json:"total"`
	HighPriority int              `json:"high_priority"`
	ByStatus     map[Status]int   `json:"by_status"`
	ByCategory   map[Category]int `json:"by_category"`
	ByPriority   map[Priority]int `json:"by_priority"`
}

// Exchange is one processed message and the response it produced.
type Exchange struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	UserInput string    `json:"user_input"`
	Response  Response  `json:"ai_response"`
	Time      time.Time `json:"time"`
}
