package cli

import (
	"context"
	"fmt"

	"github.com/PabloGalante/weekendship/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/weekendship/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/weekendship/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/weekendship/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/weekendship/internal/config"
	"github.com/PabloGalante/weekendship/internal/domain"
	"github.com/PabloGalante/weekendship/internal/observability"
)

// newModelClient picks the provider from cfg and wraps it with the
// configured timeout and retries.
func newModelClient(ctx context.Context, cfg *config.Config) (domain.ModelClient, error) {
	log := observability.Logger()

	var (
		inner domain.ModelClient
		err   error
	)

	switch cfg.Model.Provider {
	case config.ProviderOpenAI:
		log.Info("using OpenAI model client", "model", cfg.Model.Name)
		inner, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.Model.Name,
		})
	case config.ProviderVertex:
		log.Info("using Vertex AI model client", "project", cfg.GCP.ProjectID, "location", cfg.GCP.Location)
		inner, err = llm.NewVertexClient(ctx, llm.GeminiConfig{
			Project:  cfg.GCP.ProjectID,
			Location: cfg.GCP.Location,
			Model:    cfg.Model.Name,
		})
	case config.ProviderGemini:
		log.Info("using Gemini API model client")
		inner, err = llm.NewVertexClient(ctx, llm.GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Model.Name,
		})
	default:
		log.Info("using mock model client")
		return llm.NewMockLLM(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s model client: %w", cfg.Model.Provider, err)
	}

	return llm.NewResilientClient(inner, llm.ResilienceConfig{
		Timeout:     cfg.Model.Timeout,
		MaxAttempts: cfg.Model.MaxAttempts,
	}), nil
}

// newConversationStore returns the configured store and a function that
// releases it.
func newConversationStore(ctx context.Context, cfg *config.Config) (domain.ConversationStore, func() error, error) {
	log := observability.Logger()
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		log.Info("using sqlite storage", "path", cfg.Storage.SQLitePath)
		db, err := sqlitestore.OpenDB(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		return sqlitestore.NewConversationStore(db), db.Close, nil

	case config.StorageFirestore:
		log.Info("using firestore storage", "project", cfg.GCP.ProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCP.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing firestore store: %w", err)
		}
		return fs, fs.Close, nil

	default:
		log.Info("using in-memory storage")
		return memstore.NewConversationStore(), noop, nil
	}
}
