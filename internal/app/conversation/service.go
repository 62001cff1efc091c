package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/weekendship/internal/domain"
	"github.com/PabloGalante/weekendship/internal/observability"
)

const (
	// historyLimit is the number of prior turns replayed to the model.
	historyLimit = 10

	// temperature keeps planning text creative but coherent.
	temperature = 0.7

	apologyFormat = "Sorry, an error occurred while processing your request: %v"
)

type Service struct {
	model domain.ModelClient
	store domain.ConversationStore
	now   func() time.Time
	newID func() domain.ConversationID

	slots *sessionSlots
}

func NewService(model domain.ModelClient, store domain.ConversationStore) *Service {
	return &Service{
		model: model,
		store: store,
		now:   time.Now,
		newID: generateID,
		slots: newSessionSlots(),
	}
}

type ProcessMessageInput struct {
	SessionID domain.SessionID
	Text      string
	Mode      domain.PlanMode
}

// ProcessMessage turns a user message into a new conversation turn. Model
// and extraction failures degrade to a plan-less text reply; an error is
// only returned for invalid input, a store failure, or when ctx is done
// before the turn is recorded (in which case nothing is appended).
func (s *Service) ProcessMessage(ctx context.Context, in ProcessMessageInput) (*domain.Conversation, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", in.SessionID,
		"mode", in.Mode,
	)

	// History read and append form one transaction per session.
	release, err := s.slots.acquire(ctx, in.SessionID)
	if err != nil {
		log.Warn("gave up waiting for session", "error", err)
		return nil, err
	}
	defer release()

	history, err := s.store.ListBySession(ctx, in.SessionID)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, fmt.Errorf("loading history: %w", err)
	}

	sel := SelectPrompt(history, in.Mode)
	log = log.With("prompt", sel.Kind)
	log.Info("processing message", "history_len", len(history), "max_tokens", sel.MaxTokens)

	reply, plan := s.generateReply(ctx, log, sel, history, in.Text)

	if err := ctx.Err(); err != nil {
		log.Warn("request abandoned, turn discarded", "error", err)
		return nil, err
	}

	conv := &domain.Conversation{
		ID:          s.newID(),
		UserMessage: in.Text,
		BotResponse: reply,
		ProjectPlan: plan,
		Timestamp:   s.now(),
	}

	if err := s.store.Append(ctx, in.SessionID, conv); err != nil {
		log.Error("failed to append conversation", "error", err)
		return nil, fmt.Errorf("appending conversation: %w", err)
	}

	log.Info("message processed", "conversation_id", conv.ID, "has_plan", plan != nil)

	return conv, nil
}

// generateReply runs the model round-trip. It never fails: errors become an
// apology, unparseable output becomes the raw text.
func (s *Service) generateReply(
	ctx context.Context,
	log *slog.Logger,
	sel Selection,
	history []*domain.Conversation,
	text string,
) (string, *domain.ProjectPlan) {
	req := domain.CompletionRequest{
		Messages:    buildTranscript(sel.Template, history, text),
		MaxTokens:   sel.MaxTokens,
		Temperature: temperature,
	}

	start := time.Now()
	raw, err := s.model.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("model call failed", "error", err, "elapsed_ms", elapsed.Milliseconds())
		return fmt.Sprintf(apologyFormat, err), nil
	}
	log.Info("model call done", "elapsed_ms", elapsed.Milliseconds(), "output_len", len(raw))

	message, plan, err := parseReply(raw)
	if err != nil {
		log.Warn("falling back to raw model output", "error", err)
		return raw, nil
	}
	return message, plan
}

// buildTranscript lays out the model input: the template, the most recent
// prior turns in chronological order, then the new message.
func buildTranscript(template string, history []*domain.Conversation, text string) []domain.ChatMessage {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	msgs := make([]domain.ChatMessage, 0, 2*len(history)+2)
	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleSystem, Content: template})

	for _, c := range history {
		msgs = append(msgs,
			domain.ChatMessage{Role: domain.RoleUser, Content: c.UserMessage},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: assistantEntry(c)},
		)
	}

	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: text})
	return msgs
}

func assistantEntry(c *domain.Conversation) string {
	b, err := json.Marshal(replyPayload{Message: c.BotResponse, ProjectPlan: c.ProjectPlan})
	if err != nil {
		return c.BotResponse
	}
	return string(b)
}

func (s *Service) ListConversations(ctx context.Context, sessionID domain.SessionID) ([]*domain.Conversation, error) {
	convs, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list conversations",
			"session_id", sessionID, "error", err)
		return nil, err
	}
	return convs, nil
}

// ListAllConversations returns every turn of every session.
func (s *Service) ListAllConversations(ctx context.Context) ([]*domain.Conversation, error) {
	return s.store.ListAll(ctx)
}

// GetConversation looks a turn up across all sessions. Unknown ids yield
// domain.ErrNotFound.
func (s *Service) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	return s.store.FindByID(ctx, id)
}

// ClearConversations resets a session's history. Clearing an unknown
// session is a no-op and reports false.
func (s *Service) ClearConversations(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	log := observability.LoggerFromContext(ctx).With("session_id", sessionID)

	cleared, err := s.store.Clear(ctx, sessionID)
	if err != nil {
		log.Error("failed to clear conversations", "error", err)
		return false, err
	}

	log.Info("conversations cleared", "existed", cleared)
	return cleared, nil
}

type UpdateTaskInput struct {
	ConversationID domain.ConversationID
	SessionID      domain.SessionID
	TimeBlockIndex int
	TaskIndex      int
	Completed      bool
}

// UpdateTaskCompletion toggles one task inside a specific turn's plan.
func (s *Service) UpdateTaskCompletion(ctx context.Context, in UpdateTaskInput) error {
	log := observability.LoggerFromContext(ctx).With(
		"session_id", in.SessionID,
		"conversation_id", in.ConversationID,
		"time_block_index", in.TimeBlockIndex,
		"task_index", in.TaskIndex,
	)

	err := s.store.SetTaskCompleted(ctx, in.SessionID, in.ConversationID, in.TimeBlockIndex, in.TaskIndex, in.Completed)
	if err != nil {
		log.Warn("task update rejected", "error", err)
		return err
	}

	log.Info("task updated", "completed", in.Completed)
	return nil
}

func generateID() domain.ConversationID {
	return domain.ConversationID(uuid.NewString())
}

// sessionSlots hands out one write slot per session. An entry lives only
// while some caller holds or waits for it.
type sessionSlots struct {
	mu    sync.Mutex
	slots map[domain.SessionID]*sessionSlot
}

type sessionSlot struct {
	ch   chan struct{}
	refs int
}

func newSessionSlots() *sessionSlots {
	return &sessionSlots{slots: make(map[domain.SessionID]*sessionSlot)}
}

func (s *sessionSlots) acquire(ctx context.Context, id domain.SessionID) (func(), error) {
	s.mu.Lock()
	slot, ok := s.slots[id]
	if !ok {
		slot = &sessionSlot{ch: make(chan struct{}, 1)}
		s.slots[id] = slot
	}
	slot.refs++
	s.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			s.unref(id, slot)
		}, nil
	case <-ctx.Done():
		s.unref(id, slot)
		return nil, ctx.Err()
	}
}

func (s *sessionSlots) unref(id domain.SessionID, slot *sessionSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(s.slots, id)
	}
}

func (s *sessionSlots) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
