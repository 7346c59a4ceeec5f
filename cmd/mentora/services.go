package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edustack/mentora/ai"
	"github.com/edustack/mentora/insight"
	"github.com/edustack/mentora/internal/profile"
	"github.com/edustack/mentora/lesson"
	"github.com/edustack/mentora/plugin/websearch"
	"github.com/edustack/mentora/plugin/youtube"
	"github.com/edustack/mentora/store"
	"github.com/edustack/mentora/store/db/postgres"
)

// services holds every initialized component of the backend.
type services struct {
	Store        *store.Store
	Embedding    ai.EmbeddingService
	LLM          ai.LLMService
	Retriever    *lesson.Retriever
	Orchestrator *lesson.Orchestrator
	Insight      *insight.Engine
}

// buildServices connects the database, migrates the schema, and wires the AI
// pipeline. Optional collaborators (video search, web image fallback) are
// enabled only when configured.
func buildServices(ctx context.Context, instanceProfile *profile.Profile) (*services, error) {
	driver, err := postgres.NewDB(instanceProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}

	storeInstance := store.New(driver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	aiConfig := ai.NewConfigFromProfile(instanceProfile)
	if err := aiConfig.Validate(); err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("AI configuration invalid: %w", err)
	}

	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}
	llmService, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("failed to create LLM service: %w", err)
	}
	slog.Info("AI services initialized",
		"provider", aiConfig.LLM.Provider,
		"model", aiConfig.LLM.Model,
		"embedding_model", aiConfig.Embedding.Model,
	)

	var webImages lesson.ImageSearcher
	if instanceProfile.WebSearchBaseURL != "" {
		webImages = websearch.NewClient(instanceProfile.WebSearchBaseURL)
	}

	var videos lesson.VideoFinder
	if instanceProfile.YouTubeAPIKey != "" {
		videos = youtube.NewClient(instanceProfile.YouTubeAPIKey)
	} else {
		slog.Info("video search disabled, no YouTube API key configured")
	}

	engine := insight.NewEngine(storeInstance, embeddingService, llmService)
	if err := engine.Init(ctx); err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("failed to initialize history collection: %w", err)
	}

	retriever := lesson.NewRetriever(embeddingService, storeInstance, webImages)
	orchestrator := lesson.NewOrchestrator(retriever, llmService, videos, engine)

	return &services{
		Store:        storeInstance,
		Embedding:    embeddingService,
		LLM:          llmService,
		Retriever:    retriever,
		Orchestrator: orchestrator,
		Insight:      engine,
	}, nil
}

func (s *services) Close() {
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
}
