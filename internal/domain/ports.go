package domain

import "context"

// ChatMessage is one role-tagged entry of the transcript sent to the model.
type ChatMessage struct {
	Role    Role
	Content string
}

// CompletionRequest carries everything a model call needs.
type CompletionRequest struct {
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ModelClient defines how the core application interacts with a generative model.
type ModelClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ConversationStore keeps the ordered conversation turns of every session.
type ConversationStore interface {
	Append(ctx context.Context, sessionID SessionID, conv *Conversation) error
	ListBySession(ctx context.Context, sessionID SessionID) ([]*Conversation, error)
	ListAll(ctx context.Context) ([]*Conversation, error)
	FindByID(ctx context.Context, id ConversationID) (*Conversation, error)

	// Clear resets a session's history. It reports whether the session existed.
	Clear(ctx context.Context, sessionID SessionID) (bool, error)

	// SetTaskCompleted returns ErrNotFound when the turn does not belong to
	// the session, has no plan, or either index is out of range.
	SetTaskCompleted(ctx context.Context, sessionID SessionID, id ConversationID, blockIdx, taskIdx int, completed bool) error
}
