package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stockwise/stockwise/internal/config"
	"github.com/stockwise/stockwise/internal/llm"
	"github.com/stockwise/stockwise/internal/store"
)

// Migrator is implemented by stores with a schema to create
type Migrator interface {
	Migrate(ctx context.Context) error
}

// OpenStore builds the configured store. The memory store is seeded so a fresh
// process has a usable dev user and catalogue.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		st := store.NewMemoryStore()
		if err := store.Seed(ctx, st, cfg.DevUserEmail, cfg.DevUserAPIKey); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				st.Close()
				return nil, err
			}
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// NewLLMClient builds the chat model client for the configured provider
func NewLLMClient(cfg *config.Config) llm.Client {
	if cfg.LLMAPIKey == "" {
		log.Warn().Str("provider", cfg.LLMProvider).Msg("LLM API key not set - chatbot turns will fail")
	}
	if cfg.LLMProvider == "anthropic" {
		return llm.NewAnthropic(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.Model())
	}
	baseURL := cfg.LLMBaseURL
	if baseURL == "" {
		baseURL = config.DefaultOpenAIBaseURL
	}
	return llm.NewOpenAI(cfg.LLMAPIKey, baseURL, cfg.Model())
}
