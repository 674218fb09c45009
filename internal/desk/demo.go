package desk

import "github.com/h1v3-io/tkt/pkg/protocol"

// DemoTickets is the sample data created by tktd -seed.
var DemoTickets = []protocol.Ticket{
	{Title: "Login bug on SSO callback", Desc: "users bounce back to the sign-in page", Cat: protocol.CategoryCode, Pri: protocol.PriorityHigh},
	{Title: "API timeout in production", Desc: "p99 above 30s behind the load balancer", Cat: protocol.CategoryInfra, Pri: protocol.PriorityMedium},
	{Title: "Document the deploy runbook", Cat: protocol.CategoryDoc, Pri: protocol.PriorityLow},
	{Title: "Order new monitors for the team", Cat: protocol.CategoryOther, Pri: protocol.PriorityLow},
}
