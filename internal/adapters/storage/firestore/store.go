package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/weekendship/internal/domain"
)

// Store implements domain.ConversationStore with one document per session
// and a conversations subcollection ordered by a per-session sequence.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

func (s *Store) conversationsCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(sessionID).Collection("conversations")
}

type sessionDoc struct {
	CreatedAt time.Time `firestore:"created_at"`
	TurnCount int64     `firestore:"turn_count"`
}

type conversationDoc struct {
	ID          string    `firestore:"id"`
	Seq         int64     `firestore:"seq"`
	UserMessage string    `firestore:"user_message"`
	BotResponse string    `firestore:"bot_response"`
	ProjectPlan string    `firestore:"project_plan"` // JSON, "" when absent
	CreatedAt   time.Time `firestore:"created_at"`
}

func (s *Store) Append(ctx context.Context, sessionID domain.SessionID, conv *domain.Conversation) error {
	if conv == nil {
		return fmt.Errorf("%w: nil conversation", domain.ErrInvalidInput)
	}

	plan, err := encodePlan(conv.ProjectPlan)
	if err != nil {
		return err
	}

	sref := s.sessionDoc(sessionID)
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		sess := sessionDoc{CreatedAt: time.Now().UTC()}

		snap, err := tx.Get(sref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&sess); err != nil {
				return fmt.Errorf("decode sessionDoc: %w", err)
			}
		}

		doc := conversationDoc{
			ID:          string(conv.ID),
			Seq:         sess.TurnCount,
			UserMessage: conv.UserMessage,
			BotResponse: conv.BotResponse,
			ProjectPlan: plan,
			CreatedAt:   conv.Timestamp,
		}
		if err := tx.Set(s.conversationsCol(sessionID).Doc(string(conv.ID)), doc); err != nil {
			return err
		}

		sess.TurnCount++
		return tx.Set(sref, sess)
	})
	if err != nil {
		return fmt.Errorf("firestore Append: %w", err)
	}
	return nil
}

func (s *Store) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.Conversation, error) {
	out, err := collect(s.conversationsCol(sessionID).OrderBy("seq", firestore.Asc).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("firestore ListBySession: %w", err)
	}
	return out, nil
}

// ListAll groups turns by session, sessions in creation order.
func (s *Store) ListAll(ctx context.Context) ([]*domain.Conversation, error) {
	iter := s.sessionsCol().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := []*domain.Conversation{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListAll: %w", err)
		}

		convs, err := s.ListBySession(ctx, domain.SessionID(snap.Ref.ID))
		if err != nil {
			return nil, err
		}
		out = append(out, convs...)
	}
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	q := s.client.CollectionGroup("conversations").Where("id", "==", string(id)).Limit(1)

	out, err := collect(q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("firestore FindByID: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return out[0], nil
}

func (s *Store) Clear(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	if _, err := s.sessionDoc(sessionID).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("firestore Clear: %w", err)
	}

	refs, err := s.conversationsCol(sessionID).DocumentRefs(ctx).GetAll()
	if err != nil {
		return false, fmt.Errorf("firestore Clear: %w", err)
	}
	for _, ref := range refs {
		if _, err := ref.Delete(ctx); err != nil {
			return false, fmt.Errorf("firestore Clear delete %s: %w", ref.ID, err)
		}
	}
	return true, nil
}

func (s *Store) SetTaskCompleted(
	ctx context.Context,
	sessionID domain.SessionID,
	id domain.ConversationID,
	blockIdx, taskIdx int,
	completed bool,
) error {
	ref := s.conversationsCol(sessionID).Doc(string(id))

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("firestore SetTaskCompleted: %w", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode conversationDoc: %w", err)
		}

		plan, err := decodePlan(doc.ProjectPlan)
		if err != nil {
			return err
		}
		if plan == nil {
			return fmt.Errorf("conversation %s has no plan: %w", id, domain.ErrNotFound)
		}
		if !plan.SetTaskCompleted(blockIdx, taskIdx, completed) {
			return fmt.Errorf("task [%d][%d] in conversation %s: %w", blockIdx, taskIdx, id, domain.ErrNotFound)
		}

		encoded, err := encodePlan(plan)
		if err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{{Path: "project_plan", Value: encoded}})
	})
}

func collect(iter *firestore.DocumentIterator) ([]*domain.Conversation, error) {
	defer iter.Stop()

	out := []*domain.Conversation{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode conversationDoc: %w", err)
		}

		plan, err := decodePlan(doc.ProjectPlan)
		if err != nil {
			return nil, err
		}

		out = append(out, &domain.Conversation{
			ID:          domain.ConversationID(doc.ID),
			UserMessage: doc.UserMessage,
			BotResponse: doc.BotResponse,
			ProjectPlan: plan,
			Timestamp:   doc.CreatedAt,
		})
	}
	return out, nil
}

func encodePlan(p *domain.ProjectPlan) (string, error) {
	if p == nil {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding plan: %w", err)
	}
	return string(b), nil
}

func decodePlan(raw string) (*domain.ProjectPlan, error) {
	if raw == "" {
		return nil, nil
	}
	var p domain.ProjectPlan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &p, nil
}
