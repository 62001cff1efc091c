package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PabloGalante/weekendship/internal/domain"
)

// MockLLM answers without any network access. The first request in a
// session gets a fenced plan for the user's idea; once an assistant turn
// with a plan is in the transcript it answers as a follow-up.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	idea := strings.TrimSpace(lastUserMessage(req.Messages))
	if idea == "" {
		idea = "your idea"
	}

	if transcriptHasPlan(req.Messages) {
		reply, err := json.Marshal(map[string]any{
			"message":     fmt.Sprintf("Good question about %q. Keep the Saturday blocks as they are and fold this into Sunday afternoon.", idea),
			"projectPlan": nil,
		})
		if err != nil {
			return "", err
		}
		return string(reply), nil
	}

	reply, err := json.MarshalIndent(map[string]any{
		"message":     "Here's a weekend plan to get you shipping!",
		"projectPlan": mockPlan(idea),
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return "```json\n" + string(reply) + "\n```", nil
}

func transcriptHasPlan(msgs []domain.ChatMessage) bool {
	for _, m := range msgs {
		if m.Role != domain.RoleAssistant {
			continue
		}
		var entry struct {
			ProjectPlan json.RawMessage `json:"projectPlan"`
		}
		if json.Unmarshal([]byte(m.Content), &entry) != nil {
			continue
		}
		if len(entry.ProjectPlan) > 0 && string(entry.ProjectPlan) != "null" {
			return true
		}
	}
	return false
}

func mockPlan(idea string) domain.ProjectPlan {
	return domain.ProjectPlan{
		ProjectOverview: fmt.Sprintf("A weekend-sized first version of %s.", idea),
		TechStack:       []string{"Go", "SQLite", "HTMX"},
		Timeline: []domain.TimeBlock{
			{TimeBlock: "Saturday Morning", Tasks: []domain.Task{
				{Task: "Set up the repository and a hello-world server", Essential: true, EstimatedTime: "1 hour"},
				{Task: "Model the core data", Essential: true, EstimatedTime: "2 hours"},
			}},
			{TimeBlock: "Saturday Afternoon", Tasks: []domain.Task{
				{Task: "Build the main user flow end to end", Essential: true, EstimatedTime: "3 hours"},
			}},
			{TimeBlock: "Sunday Morning", Tasks: []domain.Task{
				{Task: "Polish the UI", Essential: false, EstimatedTime: "2 hours"},
				{Task: "Write a README with screenshots", Essential: false, EstimatedTime: "1 hour"},
			}},
			{TimeBlock: "Sunday Afternoon", Tasks: []domain.Task{
				{Task: "Deploy and share the link", Essential: true, EstimatedTime: "2 hours"},
			}},
		},
		Tips: []string{
			"Cut features before cutting sleep.",
			"Deploy early so Sunday has no surprises.",
		},
	}
}
