package slackconn

import (
	"fmt"
	"strings"

	"github.com/h1v3-io/tkt/internal/reply"
)

// FormatCodeBlock wraps text in a mrkdwn code block.
func FormatCodeBlock(text string) string {
	// A literal fence inside the reply would end the block early.
	text = strings.ReplaceAll(text, "```", "'''")
	return "```\n" + text + "\n```"
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Usage: /tkt <command>\n")
	for _, action := range []string{"create", "update", "view", "close"} {
		fmt.Fprintf(&b, "  %s\n", reply.CommandSyntax[action])
	}
	b.WriteString("Examples:\n")
	for _, ex := range reply.Examples {
		fmt.Fprintf(&b, "  %s\n", ex)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
