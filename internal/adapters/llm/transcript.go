package llm

import (
	"strings"

	"github.com/PabloGalante/weekendship/internal/domain"
)

// splitSystem separates system entries from the conversational turns.
// Providers that take the system prompt out of band (Gemini) use this;
// multiple system entries are joined with a blank line.
func splitSystem(msgs []domain.ChatMessage) (string, []domain.ChatMessage) {
	var (
		system []string
		turns  = make([]domain.ChatMessage, 0, len(msgs))
	)
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}

// lastUserMessage returns the most recent user entry, or "".
func lastUserMessage(msgs []domain.ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
