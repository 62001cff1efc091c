package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/weekendship/internal/domain"
)

// ConversationStore implements domain.ConversationStore on SQLite. Plans are
// stored as a JSON column; turn order is the insertion sequence.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

const selectColumns = `c.id, c.user_message, c.bot_response, c.project_plan, c.created_at`

func (s *ConversationStore) Append(ctx context.Context, sessionID domain.SessionID, conv *domain.Conversation) error {
	if conv == nil {
		return fmt.Errorf("%w: nil conversation", domain.ErrInvalidInput)
	}

	plan, err := encodePlan(conv.ProjectPlan)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting append transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, created_at) VALUES (?, ?)`,
		string(sessionID), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, session_id, user_message, bot_response, project_plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(conv.ID),
		string(sessionID),
		conv.UserMessage,
		conv.BotResponse,
		plan,
		conv.Timestamp.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM conversations c WHERE c.session_id = ? ORDER BY c.seq`,
		string(sessionID),
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations by session: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

// ListAll groups turns by session, sessions in first-seen order.
func (s *ConversationStore) ListAll(ctx context.Context) ([]*domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM conversations c
		JOIN sessions s ON s.id = c.session_id
		ORDER BY s.rowid, c.seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

func (s *ConversationStore) FindByID(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM conversations c WHERE c.id = ?`,
		string(id),
	)

	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return conv, err
}

func (s *ConversationStore) Clear(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("starting clear transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, string(sessionID)).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE session_id = ?`, string(sessionID)); err != nil {
		return false, fmt.Errorf("deleting conversations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing clear: %w", err)
	}
	return true, nil
}

func (s *ConversationStore) SetTaskCompleted(
	ctx context.Context,
	sessionID domain.SessionID,
	id domain.ConversationID,
	blockIdx, taskIdx int,
	completed bool,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting task update transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT project_plan FROM conversations WHERE id = ? AND session_id = ?`,
		string(id), string(sessionID),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading plan: %w", err)
	}

	plan, err := decodePlan(raw)
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
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET project_plan = ? WHERE id = ?`,
		encoded, string(id),
	); err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing task update: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var (
		c         domain.Conversation
		id        string
		plan      sql.NullString
		createdAt string
	)

	if err := row.Scan(&id, &c.UserMessage, &c.BotResponse, &plan, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	c.ID = domain.ConversationID(id)

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.Timestamp = ts

	c.ProjectPlan, err = decodePlan(plan)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanConversations(rows *sql.Rows) ([]*domain.Conversation, error) {
	out := []*domain.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return out, nil
}

// encodePlan returns nil (SQL NULL) for a missing plan.
func encodePlan(p *domain.ProjectPlan) (any, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	return string(b), nil
}

func decodePlan(raw sql.NullString) (*domain.ProjectPlan, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var p domain.ProjectPlan
	if err := json.Unmarshal([]byte(raw.String), &p); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &p, nil
}
