// Package prompt assembles the bounded context window sent upstream.
package prompt

import "github.com/bwengye/bwengye/internal/models"

// DefaultHistoryLimit caps how many prior turns ride along with a request.
const DefaultHistoryLimit = 50

// Turn is one entry in the context window.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RoleSystem tags the preamble turn; user/assistant roles come from the
// stored messages.
const RoleSystem = "system"

// Build assembles the context window for one request: exactly one system
// preamble first, then the prior turns in stored order capped at the most
// recent limit, then the new user turn last. The cap is a plain recency
// window — oldest turns beyond it are dropped, never reordered or
// summarized.
func Build(history []models.Message, newUserContent, preamble string, limit int) []Turn {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	turns := make([]Turn, 0, len(history)+2)
	turns = append(turns, Turn{Role: RoleSystem, Content: preamble})
	for _, msg := range history {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	turns = append(turns, Turn{Role: models.RoleUser, Content: newUserContent})
	return turns
}
