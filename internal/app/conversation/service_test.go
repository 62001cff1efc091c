package conversation_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/weekendship/internal/adapters/storage/memory"
	"github.com/PabloGalante/weekendship/internal/app/conversation"
	"github.com/PabloGalante/weekendship/internal/domain"
)

// fakeModel records every request and answers with a fixed reply.
type fakeModel struct {
	mu     sync.Mutex
	reply  string
	err    error
	onCall func(ctx context.Context)
	reqs   []domain.CompletionRequest
}

func (m *fakeModel) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()

	if m.onCall != nil {
		m.onCall(ctx)
	}
	return m.reply, m.err
}

func (m *fakeModel) last(t *testing.T) domain.CompletionRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.reqs)
	return m.reqs[len(m.reqs)-1]
}

const planReply = "Here you go!\n```json\n" + `{
  "message": "Here's your weekend plan",
  "projectPlan": {
    "projectOverview": "A recipe sharing site",
    "techStack": ["Go", "HTMX"],
    "timeline": [
      {"timeBlock": "Saturday Morning", "tasks": [
        {"task": "Set up the router", "essential": true, "estimatedTime": "1 hour"},
        {"task": "Sketch the layout", "essential": false, "estimatedTime": "30 minutes"}
      ]}
    ],
    "tips": ["Keep scope small"]
  }
}` + "\n```"

func newService(model domain.ModelClient) (*conversation.Service, *memory.ConversationStore) {
	store := memory.NewConversationStore()
	return conversation.NewService(model, store), store
}

func send(t *testing.T, svc *conversation.Service, sid domain.SessionID, text string, mode domain.PlanMode) *domain.Conversation {
	t.Helper()
	conv, err := svc.ProcessMessage(context.Background(), conversation.ProcessMessageInput{
		SessionID: sid,
		Text:      text,
		Mode:      mode,
	})
	require.NoError(t, err)
	return conv
}

func TestProcessMessageFirstBasicRequest(t *testing.T) {
	model := &fakeModel{reply: planReply}
	svc, store := newService(model)

	conv := send(t, svc, "u1", "I want to build a recipe app", domain.ModeBasic)

	assert.NotEmpty(t, conv.ID)
	assert.False(t, conv.Timestamp.IsZero())
	assert.Equal(t, "I want to build a recipe app", conv.UserMessage)
	assert.Equal(t, "Here's your weekend plan", conv.BotResponse)
	require.NotNil(t, conv.ProjectPlan)
	assert.Equal(t, "A recipe sharing site", conv.ProjectPlan.ProjectOverview)
	assert.False(t, conv.ProjectPlan.Timeline[0].Tasks[0].Completed)

	req := model.last(t)
	assert.Equal(t, 3000, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "2-3")
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "I want to build a recipe app"}, req.Messages[1])

	stored, err := store.ListBySession(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, conv.ID, stored[0].ID)
}

func TestProcessMessageDetailedUsesLargerBudget(t *testing.T) {
	model := &fakeModel{reply: planReply}
	svc, _ := newService(model)

	send(t, svc, "u1", "A chess engine", domain.ModeDetailed)

	assert.Equal(t, 6000, model.last(t).MaxTokens)
}

func TestProcessMessageUnknownModeFallsBackToBasic(t *testing.T) {
	model := &fakeModel{reply: planReply}
	svc, _ := newService(model)

	send(t, svc, "u1", "A chess engine", domain.ParsePlanMode("verbose"))

	assert.Equal(t, 3000, model.last(t).MaxTokens)
}

func TestProcessMessageFollowUpAfterPlan(t *testing.T) {
	model := &fakeModel{reply: planReply}
	svc, _ := newService(model)

	first := send(t, svc, "u1", "A chess engine", domain.ModeDetailed)

	model.reply = `{"message": "Swap HTMX for React on Sunday", "projectPlan": null}`
	second := send(t, svc, "u1", "Can I use React instead?", domain.ModeDetailed)

	req := model.last(t)
	assert.Equal(t, 2000, req.MaxTokens)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "A chess engine"}, req.Messages[1])
	assert.Equal(t, domain.RoleAssistant, req.Messages[2].Role)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "Can I use React instead?"}, req.Messages[3])

	var replayed struct {
		Message     string              `json:"message"`
		ProjectPlan *domain.ProjectPlan `json:"projectPlan"`
	}
	require.NoError(t, json.Unmarshal([]byte(req.Messages[2].Content), &replayed))
	assert.Equal(t, first.BotResponse, replayed.Message)
	assert.Equal(t, first.ProjectPlan, replayed.ProjectPlan)

	assert.Equal(t, "Swap HTMX for React on Sunday", second.BotResponse)
	assert.Nil(t, second.ProjectPlan)
}

func TestProcessMessageNoPlanStaysOnPlannerTemplate(t *testing.T) {
	model := &fakeModel{reply: "What language do you like?"}
	svc, _ := newService(model)

	send(t, svc, "u1", "Something fun", domain.ModeBasic)
	send(t, svc, "u1", "Go, please", domain.ModeBasic)

	assert.Equal(t, 3000, model.last(t).MaxTokens)
}

func TestProcessMessageModelFailureYieldsApology(t *testing.T) {
	model := &fakeModel{err: errors.New("upstream exploded")}
	svc, store := newService(model)

	conv := send(t, svc, "u1", "A chess engine", domain.ModeBasic)

	assert.Equal(t, "Sorry, an error occurred while processing your request: upstream exploded", conv.BotResponse)
	assert.Nil(t, conv.ProjectPlan)

	stored, err := store.ListBySession(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestProcessMessageDegradesToRawText(t *testing.T) {
	cases := map[string]string{
		"no json":        "Sure, here are some ideas without any structure.",
		"invalid plan":   `{"message": "hi", "projectPlan": {"projectOverview": "x"}}`,
		"empty plan":     `{"message": "hi", "projectPlan": {}}`,
		"message number": `{"message": 42}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newService(&fakeModel{reply: raw})

			conv := send(t, svc, "u1", "hello", domain.ModeBasic)

			assert.Equal(t, raw, conv.BotResponse)
			assert.Nil(t, conv.ProjectPlan)
		})
	}
}

func TestProcessMessageSkipsFencedArrayForLaterObject(t *testing.T) {
	raw := "```json\n[\"draft\"]\n```\nFinal: {\"message\":\"hi\",\"projectPlan\":null}"
	svc, _ := newService(&fakeModel{reply: raw})

	conv := send(t, svc, "u1", "hello", domain.ModeBasic)

	assert.Equal(t, "hi", conv.BotResponse)
	assert.Nil(t, conv.ProjectPlan)
}

func TestProcessMessageModeIsCaseSensitive(t *testing.T) {
	for _, mode := range []string{"Detailed", " detailed", "DETAILED"} {
		model := &fakeModel{reply: planReply}
		svc, _ := newService(model)

		send(t, svc, "u1", "A chess engine", domain.ParsePlanMode(mode))

		assert.Equal(t, 3000, model.last(t).MaxTokens, mode)
	}
}

func TestProcessMessageMissingMessageUsesRawOutput(t *testing.T) {
	raw := `{"projectPlan": null}`
	svc, _ := newService(&fakeModel{reply: raw})

	conv := send(t, svc, "u1", "hello", domain.ModeBasic)

	assert.Equal(t, raw, conv.BotResponse)
	assert.Nil(t, conv.ProjectPlan)
}

func TestProcessMessageHistoryCappedAtTenTurns(t *testing.T) {
	model := &fakeModel{reply: `{"message": "ok"}`}
	svc, _ := newService(model)

	for i := 0; i < 12; i++ {
		send(t, svc, "u1", fmt.Sprintf("msg %d", i), domain.ModeBasic)
	}
	send(t, svc, "u1", "latest", domain.ModeBasic)

	req := model.last(t)
	require.Len(t, req.Messages, 1+2*10+1)
	assert.Equal(t, "msg 2", req.Messages[1].Content)
	assert.Equal(t, "msg 11", req.Messages[19].Content)
	assert.Equal(t, "latest", req.Messages[21].Content)
}

func TestProcessMessageRejectsEmptyText(t *testing.T) {
	model := &fakeModel{reply: planReply}
	svc, store := newService(model)

	_, err := svc.ProcessMessage(context.Background(), conversation.ProcessMessageInput{
		SessionID: "u1",
		Text:      "   \n",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, model.reqs)

	stored, err := store.ListBySession(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestProcessMessageCancelledDoesNotAppend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &fakeModel{
		reply:  planReply,
		onCall: func(context.Context) { cancel() },
	}
	svc, store := newService(model)

	_, err := svc.ProcessMessage(ctx, conversation.ProcessMessageInput{SessionID: "u1", Text: "hi"})
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := store.ListBySession(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestProcessMessageSerializesPerSession(t *testing.T) {
	model := &fakeModel{reply: `{"message": "ok"}`}
	svc, store := newService(model)

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ProcessMessage(context.Background(), conversation.ProcessMessageInput{
				SessionID: "u1",
				Text:      fmt.Sprintf("msg %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := store.ListBySession(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, stored, n)

	// Every call must have seen a distinct history length.
	seen := make([]int, 0, n)
	for _, r := range model.reqs {
		seen = append(seen, len(r.Messages))
	}
	sort.Ints(seen)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, seen)
}

func TestClearConversationsIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(&fakeModel{reply: planReply})

	send(t, svc, "alice", "idea a", domain.ModeBasic)
	send(t, svc, "bob", "idea b", domain.ModeBasic)

	cleared, err := svc.ClearConversations(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, cleared)

	alice, err := svc.ListConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, alice)

	bob, err := svc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bob, 1)

	all, err := svc.ListAllConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	cleared, err = svc.ClearConversations(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestClearResetsToPlannerTemplate(t *testing.T) {
	model := &fakeModel{reply: planReply}
	svc, _ := newService(model)

	send(t, svc, "u1", "idea", domain.ModeBasic)
	_, err := svc.ClearConversations(context.Background(), "u1")
	require.NoError(t, err)
	send(t, svc, "u1", "new idea", domain.ModeDetailed)

	req := model.last(t)
	assert.Equal(t, 6000, req.MaxTokens)
	assert.Len(t, req.Messages, 2)
}

func TestGetConversation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(&fakeModel{reply: planReply})
	conv := send(t, svc, "u1", "idea", domain.ModeBasic)

	got, err := svc.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.BotResponse, got.BotResponse)

	_, err = svc.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateTaskCompletion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(&fakeModel{reply: planReply})
	conv := send(t, svc, "u1", "idea", domain.ModeBasic)

	err := svc.UpdateTaskCompletion(ctx, conversation.UpdateTaskInput{
		ConversationID: conv.ID,
		SessionID:      "u1",
		TimeBlockIndex: 0,
		TaskIndex:      1,
		Completed:      true,
	})
	require.NoError(t, err)

	got, err := svc.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.ProjectPlan.Timeline[0].Tasks[1].Completed)
	assert.False(t, got.ProjectPlan.Timeline[0].Tasks[0].Completed)
}

func TestUpdateTaskCompletionRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(&fakeModel{reply: planReply})
	conv := send(t, svc, "u1", "idea", domain.ModeBasic)

	for _, in := range []conversation.UpdateTaskInput{
		{ConversationID: conv.ID, SessionID: "u1", TimeBlockIndex: 1, TaskIndex: 0, Completed: true},
		{ConversationID: conv.ID, SessionID: "u1", TimeBlockIndex: 0, TaskIndex: 5, Completed: true},
		{ConversationID: conv.ID, SessionID: "intruder", TimeBlockIndex: 0, TaskIndex: 0, Completed: true},
	} {
		assert.ErrorIs(t, svc.UpdateTaskCompletion(ctx, in), domain.ErrNotFound)
	}

	got, err := svc.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	for _, task := range got.ProjectPlan.Timeline[0].Tasks {
		assert.False(t, task.Completed)
	}
}
