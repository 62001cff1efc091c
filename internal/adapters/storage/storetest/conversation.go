// Package storetest holds behaviour checks shared by every
// domain.ConversationStore backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/weekendship/internal/domain"
)

// Plan returns a two-block plan with every task incomplete.
func Plan() *domain.ProjectPlan {
	return &domain.ProjectPlan{
		ProjectOverview: "A CLI habit tracker",
		TechStack:       []string{"Go", "SQLite"},
		Timeline: []domain.TimeBlock{
			{TimeBlock: "Saturday Morning", Tasks: []domain.Task{
				{Task: "Scaffold the CLI", Essential: true, EstimatedTime: "1h"},
				{Task: "Design the schema", Essential: true, EstimatedTime: "30m"},
			}},
			{TimeBlock: "Sunday Afternoon", Tasks: []domain.Task{
				{Task: "Write a README", Essential: false, EstimatedTime: "45m"},
			}},
		},
		Tips: []string{"Ship the smallest useful thing first"},
	}
}

// Turn builds a conversation turn with a fixed timestamp.
func Turn(id, text string, plan *domain.ProjectPlan) *domain.Conversation {
	return &domain.Conversation{
		ID:          domain.ConversationID(id),
		UserMessage: text,
		BotResponse: "reply to " + text,
		ProjectPlan: plan,
		Timestamp:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

// RunConversationStore exercises a fresh store returned by newStore.
func RunConversationStore(t *testing.T, newStore func(t *testing.T) domain.ConversationStore) {
	t.Helper()

	t.Run("append keeps per session order", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Append(ctx, "alice", Turn("a1", "first", nil)))
		require.NoError(t, s.Append(ctx, "bob", Turn("b1", "other", nil)))
		require.NoError(t, s.Append(ctx, "alice", Turn("a2", "second", Plan())))

		got, err := s.ListBySession(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, domain.ConversationID("a1"), got[0].ID)
		assert.Equal(t, domain.ConversationID("a2"), got[1].ID)
		assert.Nil(t, got[0].ProjectPlan)
		assert.Equal(t, Plan(), got[1].ProjectPlan)
		assert.True(t, got[1].Timestamp.Equal(Turn("", "", nil).Timestamp))
	})

	t.Run("unknown session lists empty", func(t *testing.T) {
		got, err := newStore(t).ListBySession(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("nil turn is rejected", func(t *testing.T) {
		err := newStore(t).Append(context.Background(), "alice", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("list all groups sessions", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)

		require.NoError(t, s.Append(ctx, "alice", Turn("a1", "first", nil)))
		require.NoError(t, s.Append(ctx, "bob", Turn("b1", "other", nil)))
		require.NoError(t, s.Append(ctx, "alice", Turn("a2", "second", nil)))

		all, err = s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, domain.ConversationID("a1"), all[0].ID)
		assert.Equal(t, domain.ConversationID("a2"), all[1].ID)
		assert.Equal(t, domain.ConversationID("b1"), all[2].ID)
	})

	t.Run("find by id crosses sessions", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Append(ctx, "bob", Turn("b1", "other", Plan())))

		got, err := s.FindByID(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "other", got.UserMessage)
		assert.Equal(t, Plan(), got.ProjectPlan)

		_, err = s.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("returned turns are copies", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Append(ctx, "alice", Turn("a1", "first", Plan())))

		got, err := s.FindByID(ctx, "a1")
		require.NoError(t, err)
		got.ProjectPlan.Timeline[0].Tasks[0].Completed = true
		got.BotResponse = "tampered"

		again, err := s.FindByID(ctx, "a1")
		require.NoError(t, err)
		assert.False(t, again.ProjectPlan.Timeline[0].Tasks[0].Completed)
		assert.Equal(t, "reply to first", again.BotResponse)
	})

	t.Run("clear only touches one session", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Append(ctx, "alice", Turn("a1", "first", nil)))
		require.NoError(t, s.Append(ctx, "bob", Turn("b1", "other", nil)))

		existed, err := s.Clear(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, existed)

		alice, err := s.ListBySession(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, alice)

		bob, err := s.ListBySession(ctx, "bob")
		require.NoError(t, err)
		assert.Len(t, bob, 1)

		existed, err = s.Clear(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, existed, "a cleared session still exists")

		existed, err = s.Clear(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("set task completed", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Append(ctx, "alice", Turn("a1", "first", Plan())))

		require.NoError(t, s.SetTaskCompleted(ctx, "alice", "a1", 1, 0, true))

		got, err := s.FindByID(ctx, "a1")
		require.NoError(t, err)
		assert.True(t, got.ProjectPlan.Timeline[1].Tasks[0].Completed)
		assert.False(t, got.ProjectPlan.Timeline[0].Tasks[0].Completed)

		require.NoError(t, s.SetTaskCompleted(ctx, "alice", "a1", 1, 0, false))
		got, err = s.FindByID(ctx, "a1")
		require.NoError(t, err)
		assert.False(t, got.ProjectPlan.Timeline[1].Tasks[0].Completed)
	})

	t.Run("set task completed rejects bad targets", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Append(ctx, "alice", Turn("a1", "first", Plan())))
		require.NoError(t, s.Append(ctx, "alice", Turn("a2", "chat", nil)))

		cases := []struct {
			name    string
			session domain.SessionID
			id      domain.ConversationID
			block   int
			task    int
		}{
			{"block out of range", "alice", "a1", 2, 0},
			{"task out of range", "alice", "a1", 0, 2},
			{"negative index", "alice", "a1", -1, 0},
			{"no plan", "alice", "a2", 0, 0},
			{"unknown turn", "alice", "zz", 0, 0},
			{"other session", "bob", "a1", 0, 0},
		}
		for _, tc := range cases {
			err := s.SetTaskCompleted(ctx, tc.session, tc.id, tc.block, tc.task, true)
			assert.ErrorIs(t, err, domain.ErrNotFound, tc.name)
		}

		got, err := s.FindByID(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, Plan(), got.ProjectPlan, "plan must be left untouched")
	})
}
