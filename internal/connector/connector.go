// Package connector defines the chat front ends that feed commands to the
// desk and deliver its replies.
package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/h1v3-io/tkt/pkg/protocol"
)

// Connector is the interface for external messaging platforms (Telegram, Slack).
type Connector interface {
	// Name returns the connector type (e.g., "telegram", "slack").
	Name() string
	// Start begins listening for inbound messages. Blocks until context is cancelled.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the connector.
	Stop() error
	// Send delivers an outbound message to the external platform.
	Send(ctx context.Context, msg OutboundMessage) error
}

// OutboundMessage is a reply sent to an external platform.
type OutboundMessage struct {
	ChatID   string // Platform-specific chat identifier
	ThreadID string // Optional thread or message to reply under
	Content  string
}

// InboundMessage is a command received from an external platform.
type InboundMessage struct {
	Channel  string // Connector name (e.g., "telegram")
	SenderID string // Platform-specific sender identifier
	ChatID   string // Platform-specific chat identifier
	Content  string // Command text
}

// InboundHandler processes one command and returns the reply text.
type InboundHandler func(ctx context.Context, msg InboundMessage) (string, error)

// Processor runs a command on behalf of a channel. *desk.Desk implements it.
type Processor interface {
	Process(channel, text string) (protocol.Exchange, error)
}

// DeskHandler returns an InboundHandler that runs every message through p
// and replies with the compact JSON response.
func DeskHandler(p Processor) InboundHandler {
	return func(_ context.Context, msg InboundMessage) (string, error) {
		ex, err := p.Process(msg.Channel, msg.Content)
		if err != nil {
			return "", err
		}
		return FormatReply(ex.Response), nil
	}
}

// FormatReply encodes r as compact JSON.
func FormatReply(r protocol.Response) string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"status":"er","msg":%q}`, err.Error())
	}
	return string(data)
}
