package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/weekendship/internal/domain"
)

const validPlan = `{
  "projectOverview": "Pixel art editor",
  "techStack": ["TypeScript", "Canvas"],
  "timeline": [{"timeBlock": "Saturday Morning", "tasks": [
    {"task": "Grid rendering", "essential": true, "estimatedTime": "2 hours", "completed": true}
  ]}],
  "tips": ["Save often"]
}`

func TestParseReplyWithPlan(t *testing.T) {
	msg, plan, err := parseReply("Sure!\n```json\n{\"message\": \"Enjoy\", \"projectPlan\": " + validPlan + "}\n```\nGood luck")
	require.NoError(t, err)
	assert.Equal(t, "Enjoy", msg)
	require.NotNil(t, plan)
	assert.Equal(t, []string{"TypeScript", "Canvas"}, plan.TechStack)
	assert.Equal(t, domain.Task{Task: "Grid rendering", Essential: true, EstimatedTime: "2 hours", Completed: true},
		plan.Timeline[0].Tasks[0])
}

func TestParseReplyNullPlan(t *testing.T) {
	msg, plan, err := parseReply(`{"message": "Just chatting", "projectPlan": null}`)
	require.NoError(t, err)
	assert.Equal(t, "Just chatting", msg)
	assert.Nil(t, plan)
}

func TestParseReplyMessageFallsBackToRaw(t *testing.T) {
	raw := `prefix {"projectPlan": ` + validPlan + `}`
	msg, plan, err := parseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, msg)
	assert.NotNil(t, plan)

	raw = `{"message": null}`
	msg, _, err = parseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, msg)
}

func TestParseReplyErrors(t *testing.T) {
	_, _, err := parseReply("no braces at all")
	assert.ErrorIs(t, err, errNoJSON)

	_, _, err = parseReply(`{"message": "x", "projectPlan": {"projectOverview": "x", "techStack": [], "timeline": "soon", "tips": []}}`)
	assert.ErrorIs(t, err, errInvalidPlan)

	_, _, err = parseReply(`{"message": "x", "projectPlan": {}}`)
	assert.ErrorIs(t, err, errInvalidPlan)

	_, _, err = parseReply(`["not", "an", "object"]`)
	assert.Error(t, err)

	_, _, err = parseReply(`{"message": ["list"]}`)
	assert.Error(t, err)
}

func TestAssistantEntryRoundTrips(t *testing.T) {
	conv := &domain.Conversation{BotResponse: "Here it is", ProjectPlan: &domain.ProjectPlan{
		ProjectOverview: "x",
		TechStack:       []string{"Go"},
		Timeline:        []domain.TimeBlock{{TimeBlock: "Sunday", Tasks: []domain.Task{{Task: "t", EstimatedTime: "1h"}}}},
		Tips:            []string{},
	}}

	msg, plan, err := parseReply(assistantEntry(conv))
	require.NoError(t, err)
	assert.Equal(t, "Here it is", msg)
	assert.Equal(t, conv.ProjectPlan, plan)
}

func TestBuildTranscriptOrder(t *testing.T) {
	history := []*domain.Conversation{
		{UserMessage: "one", BotResponse: "r1"},
		{UserMessage: "two", BotResponse: "r2"},
	}

	msgs := buildTranscript("SYS", history, "three")

	require.Len(t, msgs, 6)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleSystem, Content: "SYS"}, msgs[0])
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "one"}, msgs[1])
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleAssistant, Content: `{"message":"r1","projectPlan":null}`}, msgs[2])
	assert.Equal(t, domain.RoleUser, msgs[3].Role)
	assert.Equal(t, domain.RoleAssistant, msgs[4].Role)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "three"}, msgs[5])
}
