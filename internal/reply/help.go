package reply

import "github.com/h1v3-io/tkt/pkg/protocol"

// CommandSyntax is the one-line syntax of each action, keyed by action name.
var CommandSyntax = map[string]string{
	"create": "create ticket [title] [priority: low|med|high]",
	"update": "update [ticket_id] [status: open|prog|done] [note]",
	"view":   "view [ticket_id] or show [status] tickets",
	"close":  "close [ticket_id] [resolution]",
}

// CategoryHelp describes what belongs in each category.
var CategoryHelp = map[protocol.Category]string{
	protocol.CategoryCode:  "bugs, development issues",
	protocol.CategoryInfra: "servers, deployment, DevOps",
	protocol.CategoryDoc:   "documentation, requirements",
	protocol.CategoryOther: "general requests",
}

// Help returns the command syntax response.
func Help() protocol.Response {
	return Data(CommandSyntax)
}

// Categories returns the category description response.
func Categories() protocol.Response {
	return Data(CategoryHelp)
}

// Examples are sample commands, one per common intent.
var Examples = []string{
	"Create ticket for login bug, high priority",
	"Create ticket: API timeout in production, medium priority",
	"Show open tickets",
	"Update T001 to in progress, investigating issue",
	"Close T001, fixed authentication bug",
	"Show high priority tickets",
}
