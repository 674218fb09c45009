// Package assistant is the single entry point that turns a line of text
// into a ticket operation and its compact response.
package assistant

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/h1v3-io/tkt/internal/intent"
	"github.com/h1v3-io/tkt/internal/reply"
	"github.com/h1v3-io/tkt/pkg/protocol"
)

// Store is the subset of *ticket.Store the assistant drives.
type Store interface {
	Create(title, desc string, cat protocol.Category, pri protocol.Priority) (protocol.Response, error)
	Update(id string, status protocol.Status, resolution string) protocol.Response
	Close(id, resolution string) protocol.Response
	Get(id string) protocol.Response
	List(q protocol.Query) protocol.Response
}

// Assistant dispatches parsed intents to the store.
type Assistant struct {
	parser intent.Parser
	store  Store
	logger *slog.Logger
}

// New creates an Assistant. A nil parser uses intent.Rules.
func New(parser intent.Parser, store Store, logger *slog.Logger) *Assistant {
	if parser == nil {
		parser = intent.Rules{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		parser: parser,
		store:  store,
		logger: logger.With("component", "assistant"),
	}
}

// Process handles one command. Bad input is answered with an error
// response; a non-nil error means the store itself is unusable.
func (a *Assistant) Process(text string) (protocol.Response, error) {
	if strings.TrimSpace(text) == "" {
		return reply.Error(reply.Invalid), nil
	}

	in, err := a.parser.Parse(text)
	switch {
	case errors.Is(err, intent.ErrMissingTitle):
		return reply.Error(reply.MissingTitle), nil
	case errors.Is(err, intent.ErrMissingID):
		return reply.Error(reply.InvalidID), nil
	case err != nil:
		a.logger.Debug("unrecognized input", "text", text, "error", err)
		return reply.Error(reply.Invalid), nil
	}
	a.logger.Debug("intent parsed", "action", in.Action, "id", in.ID)

	switch in.Action {
	case intent.ActionCreate:
		r, err := a.store.Create(in.Title, "", in.Category, in.Priority)
		if err != nil {
			return protocol.Response{}, fmt.Errorf("assistant: %w", err)
		}
		return r, nil
	case intent.ActionUpdate:
		return a.store.Update(in.ID, in.Status, in.Note), nil
	case intent.ActionView:
		if in.ID != "" {
			return a.store.Get(in.ID), nil
		}
		return a.store.List(in.Query), nil
	case intent.ActionClose:
		return a.store.Close(in.ID, in.Note), nil
	}
	return reply.Error(reply.Invalid), nil
}
