package domain

// Conversation is one turn: the user's message, the generated reply and,
// optionally, the plan extracted from it.
type Conversation struct {
	ID          ConversationID `json:"id"`
	UserMessage string         `json:"userMessage"`
	BotResponse string         `json:"botResponse"`
	ProjectPlan *ProjectPlan   `json:"projectPlan"`
	Timestamp   Timestamp      `json:"timestamp"`
}

// Clone returns a copy that shares no mutable state with c.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.ProjectPlan = c.ProjectPlan.Clone()
	return &out
}

// HasPlan reports whether any turn in history carries a plan.
func HasPlan(history []*Conversation) bool {
	for _, c := range history {
		if c != nil && c.ProjectPlan != nil {
			return true
		}
	}
	return false
}
