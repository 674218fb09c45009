// Package slackconn connects a Slack app to the desk over Socket Mode.
package slackconn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/h1v3-io/tkt/internal/connector"
)

// Config holds Slack connector configuration.
type Config struct {
	BotToken string   // xoxb-... Bot User OAuth Token
	AppToken string   // xapp-... App-Level Token (for Socket Mode)
	Channels []string // Optional: only respond in these channels (empty = all)
	// APIURL overrides the Slack Web API base URL. Must end in "/".
	APIURL string
}

// Connector implements connector.Connector for Slack via Socket Mode.
type Connector struct {
	api     *slack.Client
	socket  *socketmode.Client
	config  Config
	handler connector.InboundHandler
	logger  *slog.Logger
	cancel  context.CancelFunc
	botID   string
}

// New checks the bot token and returns a connector.
func New(cfg Config, handler connector.InboundHandler, logger *slog.Logger) (*Connector, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack: bot_token is required")
	}
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("slack: app_token is required (Socket Mode)")
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "slack")

	opts := []slack.Option{slack.OptionAppLevelToken(cfg.AppToken)}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	api := slack.New(cfg.BotToken, opts...)

	authResp, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack: auth test: %w", err)
	}
	logger.Info("slack bot authorized", "user", authResp.User, "team", authResp.Team)

	return &Connector{
		api:     api,
		socket:  socketmode.New(api),
		config:  cfg,
		handler: handler,
		logger:  logger,
		botID:   authResp.UserID,
	}, nil
}

func (c *Connector) Name() string { return "slack" }

// Start begins listening for events via Socket Mode. Blocks until context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.handleEvents(ctx)

	c.logger.Info("slack connector started (socket mode)")
	return c.socket.RunContext(ctx)
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Send posts a reply as a code block, in a thread when ThreadID is set.
func (c *Connector) Send(ctx context.Context, msg connector.OutboundMessage) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(FormatCodeBlock(msg.Content), false),
	}
	if msg.ThreadID != "" {
		opts = append(opts, slack.MsgOptionTS(msg.ThreadID))
	}
	if _, _, err := c.api.PostMessageContext(ctx, msg.ChatID, opts...); err != nil {
		return fmt.Errorf("slack: send message: %w", err)
	}
	return nil
}

func (c *Connector) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.socket.Events:
			switch event.Type {
			case socketmode.EventTypeEventsAPI:
				eventsAPIEvent, ok := event.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				c.socket.Ack(*event.Request)
				switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
				case *slackevents.MessageEvent:
					c.handleMessage(ctx, ev)
				case *slackevents.AppMentionEvent:
					c.handleMention(ctx, ev)
				}
			case socketmode.EventTypeSlashCommand:
				cmd, ok := event.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				c.socket.Ack(*event.Request)
				c.handleSlashCommand(ctx, cmd)
			}
		}
	}
}

func (c *Connector) handleMessage(ctx context.Context, ev *slackevents.MessageEvent) {
	// Ignore bot messages (including our own)
	if ev.BotID != "" || ev.User == "" || ev.User == c.botID {
		return
	}
	// Edits, deletes and joins carry a subtype.
	if ev.SubType != "" {
		return
	}
	if !c.isAllowedChannel(ev.Channel) {
		return
	}
	// Mentions arrive again as app_mention events.
	if c.botID != "" && strings.Contains(ev.Text, "<@"+c.botID+">") {
		return
	}
	c.dispatch(ctx, ev.User, ev.Channel, ev.ThreadTimeStamp, ev.Text)
}

func (c *Connector) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	if ev.User == c.botID || ev.BotID != "" {
		return
	}
	if !c.isAllowedChannel(ev.Channel) {
		return
	}
	c.dispatch(ctx, ev.User, ev.Channel, ev.ThreadTimeStamp, StripMention(ev.Text, c.botID))
}

func (c *Connector) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" || text == "help" {
		c.reply(ctx, cmd.ChannelID, "", helpText())
		return
	}
	c.dispatch(ctx, cmd.UserID, cmd.ChannelID, "", text)
}

func (c *Connector) dispatch(ctx context.Context, user, channel, threadTS, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	inbound := connector.InboundMessage{
		Channel:  c.Name(),
		SenderID: user,
		ChatID:   channel,
		Content:  text,
	}
	out, err := c.handler(ctx, inbound)
	if err != nil {
		c.logger.Error("slack inbound handler error",
			"channel", channel,
			"user", user,
			"error", err,
		)
		out = "Sorry, that command failed. Try again later."
	}
	c.reply(ctx, channel, threadTS, out)
}

func (c *Connector) reply(ctx context.Context, channel, threadTS, text string) {
	err := c.Send(ctx, connector.OutboundMessage{ChatID: channel, ThreadID: threadTS, Content: text})
	if err != nil {
		c.logger.Error("reply failed", "channel", channel, "error", err)
	}
}

func (c *Connector) isAllowedChannel(channel string) bool {
	return len(c.config.Channels) == 0 || slices.Contains(c.config.Channels, channel)
}

// StripMention removes the <@BOTID> mention from message text.
func StripMention(text, botID string) string {
	mention := fmt.Sprintf("<@%s>", botID)
	text = strings.Replace(text, mention, "", 1)
	return strings.TrimSpace(text)
}
