package contract

import (
	"fmt"
	"strings"
)

// Transcript renders turns as plain text for inclusion in a prompt.
func Transcript(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		switch {
		case t.IsToolCall():
			fmt.Fprintf(&b, "assistant: [requested %s(%q)]\n", t.ToolCall.Name, t.ToolCall.Argument)
		case t.IsToolResult():
			fmt.Fprintf(&b, "tool(%s): %s\n", t.ToolName, t.Text)
		default:
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
