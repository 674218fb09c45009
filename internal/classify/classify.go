// Package classify maps free text to a ticket category or priority using
// fixed keyword tables.
package classify

import (
	"strings"

	"github.com/h1v3-io/tkt/pkg/protocol"
)

type categoryKeywords struct {
	cat      protocol.Category
	keywords []string
}

type priorityKeywords struct {
	pri      protocol.Priority
	keywords []string
}

// Table order is the match order.
var categoryTable = []categoryKeywords{
	{protocol.CategoryCode, []string{"bug", "error", "exception", "build", "compile", "deploy", "ci/cd"}},
	{protocol.CategoryInfra, []string{"server", "network", "database", "performance", "outage", "aws", "azure"}},
	{protocol.CategoryDoc, []string{"documentation", "readme", "guide", "manual", "wiki", "spec"}},
	{protocol.CategoryOther, []string{"meeting", "training", "access", "account", "general"}},
}

var priorityTable = []priorityKeywords{
	{protocol.PriorityHigh, []string{"urgent", "critical", "asap", "emergency", "outage", "down", "high"}},
	{protocol.PriorityMedium, []string{"medium", "normal", "standard", "med"}},
	{protocol.PriorityLow, []string{"low", "minor", "enhancement", "nice-to-have"}},
}

// Priority returns the first priority in table order whose keywords occur in
// text, or medium when none do.
func Priority(text string) protocol.Priority {
	lower := strings.ToLower(text)
	for _, row := range priorityTable {
		if containsAny(lower, row.keywords) {
			return row.pri
		}
	}
	return protocol.PriorityMedium
}

// Category returns the first category in table order whose keywords occur in
// text, or other when none do.
func Category(text string) protocol.Category {
	lower := strings.ToLower(text)
	for _, row := range categoryTable {
		if containsAny(lower, row.keywords) {
			return row.cat
		}
	}
	return protocol.CategoryOther
}

// HasPriorityKeyword reports whether text mentions any keyword of p.
func HasPriorityKeyword(text string, p protocol.Priority) bool {
	lower := strings.ToLower(text)
	for _, row := range priorityTable {
		if row.pri == p {
			return containsAny(lower, row.keywords)
		}
	}
	return false
}

// Keywords returns a copy of the keyword list for c.
func Keywords(c protocol.Category) []string {
	for _, row := range categoryTable {
		if row.cat == c {
			return append([]string(nil), row.keywords...)
		}
	}
	return nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
