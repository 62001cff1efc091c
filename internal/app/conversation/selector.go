package conversation

import "github.com/PabloGalante/weekendship/internal/domain"

// PromptKind names the instruction template governing a model call.
type PromptKind string

const (
	PromptBasic    PromptKind = "basic"
	PromptDetailed PromptKind = "detailed"
	PromptFollowUp PromptKind = "follow_up"
)

// Token budgets per template. Detailed plans are twice as long as basic ones.
const (
	followUpMaxTokens = 2000
	basicMaxTokens    = 3000
	detailedMaxTokens = 2 * basicMaxTokens
)

// Selection is the outcome of SelectPrompt.
type Selection struct {
	Kind      PromptKind
	Template  string
	MaxTokens int
}

// SelectPrompt picks the template for the next model call. Once any turn in
// history carries a plan, every later call is a follow-up regardless of mode.
func SelectPrompt(history []*domain.Conversation, mode domain.PlanMode) Selection {
	if domain.HasPlan(history) {
		return Selection{Kind: PromptFollowUp, Template: followUpPrompt, MaxTokens: followUpMaxTokens}
	}

	if mode == domain.ModeDetailed {
		return Selection{Kind: PromptDetailed, Template: detailedPlannerPrompt, MaxTokens: detailedMaxTokens}
	}
	return Selection{Kind: PromptBasic, Template: basicPlannerPrompt, MaxTokens: basicMaxTokens}
}
