package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/weekendship/internal/domain"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig selects the backend: Vertex AI when Project is set,
// the Gemini Developer API when only APIKey is set.
type GeminiConfig struct {
	Project  string
	Location string
	APIKey   string
	Model    string
}

type VertexClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexClient creates a ModelClient based on Gemini.
func NewVertexClient(ctx context.Context, cfg GeminiConfig) (*VertexClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.Project != "":
		if cfg.Location == "" {
			return nil, errors.New("gcp location is required for vertex ai")
		}
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	default:
		return nil, errors.New("either a gcp project or a gemini api key must be set")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Complete implements domain.ModelClient.
func (v *VertexClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	system, turns := splitSystem(req.Messages)

	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		// System instructions are sent with the user role.
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", errors.New("gemini returned empty text")
	}
	return text, nil
}
