package assistant

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h1v3-io/tkt/internal/intent"
	"github.com/h1v3-io/tkt/internal/ticket"
	"github.com/h1v3-io/tkt/pkg/protocol"
)

func newTestAssistant(t *testing.T) (*Assistant, *ticket.Store) {
	t.Helper()
	store, err := ticket.Open(ticket.NewJSONFile(filepath.Join(t.TempDir(), "tickets.json")))
	require.NoError(t, err)
	return New(nil, store, nil), store
}

func process(t *testing.T, a *Assistant, text string) protocol.Response {
	t.Helper()
	r, err := a.Process(text)
	require.NoError(t, err)
	return r
}

func TestProcess_CreateHighPriorityBug(t *testing.T) {
	a, _ := newTestAssistant(t)

	r := process(t, a, "Create ticket for login bug, high priority")
	assert.Equal(t, protocol.StatusOK, r.Status)
	assert.Equal(t, "created", r.Action)

	tk, ok := r.Data.(protocol.Ticket)
	require.True(t, ok)
	assert.Equal(t, "T001", tk.ID)
	assert.Equal(t, protocol.PriorityHigh, tk.Pri)
	assert.Equal(t, protocol.CategoryCode, tk.Cat)
	assert.Contains(t, tk.Title, "login bug")
	assert.Equal(t, protocol.StatusOpen, tk.Stat)
	assert.Empty(t, tk.Desc)
}

func TestProcess_UpdateUnknownTicket(t *testing.T) {
	a, _ := newTestAssistant(t)

	r := process(t, a, "update T001 to in progress")
	assert.Equal(t, protocol.StatusError, r.Status)
	assert.Equal(t, "invalid ticket id", r.Msg)
}

func TestProcess_ShowOpenTickets(t *testing.T) {
	a, _ := newTestAssistant(t)
	process(t, a, "Create ticket for login bug, high priority")
	process(t, a, "Create ticket: API timeout in production, medium priority")

	r := process(t, a, "show open tickets")
	assert.Equal(t, protocol.StatusOK, r.Status)
	require.NotNil(t, r.Count)
	assert.Equal(t, 2, *r.Count)

	items, ok := r.Data.([]protocol.Summary)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "T001", items[0].ID)
	assert.Equal(t, "T002", items[1].ID)
}

func TestProcess_UpdateThenClose(t *testing.T) {
	a, store := newTestAssistant(t)
	process(t, a, "Create ticket for login bug, high priority")

	r := process(t, a, "Update T001 to in progress, investigating issue")
	assert.Equal(t, "updated", r.Action)
	assert.Equal(t, protocol.UpdateResult{ID: "T001", Stat: protocol.StatusProgress, Res: "in progress, investigating issue"}, r.Data)

	r = process(t, a, "close T001, fixed the bug")
	assert.Equal(t, "closed", r.Action)
	res, ok := r.Data.(protocol.CloseResult)
	require.True(t, ok)
	assert.Equal(t, protocol.StatusDone, res.Stat)
	assert.Equal(t, "fixed the bug", res.Res)

	stored, ok := store.Lookup("T001")
	require.True(t, ok)
	assert.Equal(t, protocol.StatusDone, stored.Stat)
	assert.Equal(t, "fixed the bug", stored.Res)
}

func TestProcess_CloseDefaultResolution(t *testing.T) {
	a, _ := newTestAssistant(t)
	process(t, a, "add ticket printer jammed")

	r := process(t, a, "close T001")
	assert.Equal(t, protocol.CloseResult{ID: "T001", Stat: protocol.StatusDone, Res: "resolved"}, r.Data)
}

func TestProcess_ViewSingle(t *testing.T) {
	a, _ := newTestAssistant(t)
	created := process(t, a, "new ticket update the docs page")

	r := process(t, a, "view T001")
	assert.Equal(t, protocol.StatusOK, r.Status)
	assert.Empty(t, r.Action)
	assert.Equal(t, created.Data, r.Data)

	r = process(t, a, "view T002")
	assert.Equal(t, "invalid ticket id", r.Msg)
}

func TestProcess_Errors(t *testing.T) {
	a, _ := newTestAssistant(t)

	tests := []struct {
		text string
		msg  string
	}{
		{"", "invalid input"},
		{"   ", "invalid input"},
		{"hello there", "invalid input"},
		{"create", "title required"},
		{"close the ticket", "invalid ticket id"},
		{"update the login issue", "invalid ticket id"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := process(t, a, tt.text)
			assert.Equal(t, protocol.StatusError, r.Status)
			assert.Equal(t, tt.msg, r.Msg)
		})
	}
}

type stubParser struct {
	in  intent.Intent
	err error
}

func (p stubParser) Parse(string) (intent.Intent, error) { return p.in, p.err }

type brokenStore struct{ Store }

func (brokenStore) Create(string, string, protocol.Category, protocol.Priority) (protocol.Response, error) {
	return protocol.Response{}, ticket.ErrCorruptID
}

func TestProcess_StoreFailureSurfaces(t *testing.T) {
	a := New(stubParser{in: intent.Intent{Action: intent.ActionCreate, Title: "x", Category: protocol.CategoryOther, Priority: protocol.PriorityMedium}}, brokenStore{}, nil)

	_, err := a.Process("create x")
	assert.True(t, errors.Is(err, ticket.ErrCorruptID))
}

func TestProcess_CustomParser(t *testing.T) {
	_, store := newTestAssistant(t)
	a := New(stubParser{err: errors.New("nope")}, store, nil)

	r, err := a.Process("create something")
	require.NoError(t, err)
	assert.Equal(t, "invalid input", r.Msg)
}
