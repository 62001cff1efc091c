package domain

import "time"

type SessionID string
type ConversationID string
type FileID string

// Role tags an entry of the transcript sent to the model.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PlanMode is the caller-supplied flavour of a first planning request.
type PlanMode string

const (
	ModeBasic    PlanMode = "basic"    // Concise plan, 2-3 tasks per block
	ModeDetailed PlanMode = "detailed" // Hyper-specific tasks with markdown formatting
)

// ParsePlanMode maps free text to a PlanMode. Anything other than exactly
// "detailed" is treated as basic.
func ParsePlanMode(s string) PlanMode {
	if s == string(ModeDetailed) {
		return ModeDetailed
	}
	return ModeBasic
}

type Timestamp = time.Time
