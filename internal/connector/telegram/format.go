package telegram

import (
	"fmt"
	"strings"

	"github.com/h1v3-io/tkt/internal/reply"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// FormatHTML wraps text in a <pre> block using Telegram's HTML subset.
func FormatHTML(text string) string {
	return "<pre>" + htmlEscaper.Replace(text) + "</pre>"
}

// HelpText is the answer to /help and /start.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Send a ticket command, for example:\n")
	for _, ex := range reply.Examples {
		fmt.Fprintf(&b, "  %s\n", ex)
	}
	b.WriteString("\nSyntax:\n")
	for _, action := range []string{"create", "update", "view", "close"} {
		fmt.Fprintf(&b, "  %s\n", reply.CommandSyntax[action])
	}
	return strings.TrimSuffix(b.String(), "\n")
}
