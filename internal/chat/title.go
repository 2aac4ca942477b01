package chat

import "strings"

// DeriveTitle builds a conversation title from the first user message: a
// whitespace-trimmed prefix of at most max runes, with an ellipsis when
// truncated. Titles are set once at creation and never rewritten.
func DeriveTitle(message string, max int) string {
	title := strings.TrimSpace(message)
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
