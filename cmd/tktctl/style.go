package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/h1v3-io/tkt/pkg/protocol"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	nfStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	priStyles = map[protocol.Priority]lipgloss.Style{
		protocol.PriorityHigh:   errStyle,
		protocol.PriorityMedium: nfStyle,
		protocol.PriorityLow:    dimStyle,
	}
)

func statusStyle(s protocol.ResponseStatus) lipgloss.Style {
	switch s {
	case protocol.StatusOK:
		return okStyle
	case protocol.StatusNotFound:
		return nfStyle
	default:
		return errStyle
	}
}

// renderResponse prints the status tag followed by the compact JSON
// response, which is what the assistant actually returns.
func renderResponse(r protocol.Response) string {
	data, err := json.Marshal(r)
	if err != nil {
		return errStyle.Render("error: ") + err.Error()
	}
	return statusTag(r.Status) + " " + string(data)
}

func statusTag(s protocol.ResponseStatus) string {
	return statusStyle(s).Render(fmt.Sprintf("[%s]", s))
}

func renderSummaries(items []protocol.Summary) string {
	if len(items) == 0 {
		return dimStyle.Render("no tickets") + "\n"
	}
	var b strings.Builder
	for _, s := range items {
		pri := priStyles[s.Pri].Render(fmt.Sprintf("%-4s", s.Pri.Label()))
		fmt.Fprintf(&b, "%s  %s  %-5s  %s\n", titleStyle.Render(s.ID), pri, s.Cat, s.Title)
	}
	return b.String()
}

func renderStats(st protocol.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d tickets, %d high priority\n", titleStyle.Render("total"), st.Total, st.HighPriority)
	b.WriteString(dimStyle.Render("status  "))
	for _, s := range protocol.Statuses {
		fmt.Fprintf(&b, " %s=%d", s, st.ByStatus[s])
	}
	b.WriteString("\n" + dimStyle.Render("category"))
	for _, c := range protocol.Categories {
		fmt.Fprintf(&b, " %s=%d", c, st.ByCategory[c])
	}
	b.WriteString("\n" + dimStyle.Render("priority"))
	for _, p := range protocol.Priorities {
		fmt.Fprintf(&b, " %s=%d", p.Label(), st.ByPriority[p])
	}
	return b.String()
}
