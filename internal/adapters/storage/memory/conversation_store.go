package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/weekendship/internal/domain"
)

// ConversationStore is a process-wide, non-persistent domain.ConversationStore.
// Turns are copied on the way in and out, so the only way to mutate a stored
// turn is SetTaskCompleted.
type ConversationStore struct {
	mu        sync.RWMutex
	bySession map[domain.SessionID][]*domain.Conversation
	order     []domain.SessionID
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		bySession: make(map[domain.SessionID][]*domain.Conversation),
	}
}

func (s *ConversationStore) Append(_ context.Context, sessionID domain.SessionID, conv *domain.Conversation) error {
	if conv == nil {
		return fmt.Errorf("%w: nil conversation", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bySession[sessionID]; !ok {
		s.order = append(s.order, sessionID)
	}
	s.bySession[sessionID] = append(s.bySession[sessionID], conv.Clone())
	return nil
}

func (s *ConversationStore) ListBySession(_ context.Context, sessionID domain.SessionID) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneAll(s.bySession[sessionID]), nil
}

// ListAll returns every session's turns, sessions in first-seen order.
func (s *ConversationStore) ListAll(_ context.Context) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Conversation{}
	for _, id := range s.order {
		out = append(out, cloneAll(s.bySession[id])...)
	}
	return out, nil
}

func (s *ConversationStore) FindByID(_ context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sid := range s.order {
		for _, c := range s.bySession[sid] {
			if c.ID == id {
				return c.Clone(), nil
			}
		}
	}
	return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
}

func (s *ConversationStore) Clear(_ context.Context, sessionID domain.SessionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bySession[sessionID]; !ok {
		return false, nil
	}
	s.bySession[sessionID] = []*domain.Conversation{}
	return true, nil
}

func (s *ConversationStore) SetTaskCompleted(
	_ context.Context,
	sessionID domain.SessionID,
	id domain.ConversationID,
	blockIdx, taskIdx int,
	completed bool,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.bySession[sessionID] {
		if c.ID != id {
			continue
		}
		if c.ProjectPlan == nil {
			return fmt.Errorf("conversation %s has no plan: %w", id, domain.ErrNotFound)
		}
		if !c.ProjectPlan.SetTaskCompleted(blockIdx, taskIdx, completed) {
			return fmt.Errorf("task [%d][%d] in conversation %s: %w", blockIdx, taskIdx, id, domain.ErrNotFound)
		}
		return nil
	}
	return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
}

func cloneAll(in []*domain.Conversation) []*domain.Conversation {
	out := make([]*domain.Conversation, 0, len(in))
	for _, c := range in {
		out = append(out, c.Clone())
	}
	return out
}
