package ai

import (
	"errors"

	"github.com/edustack/mentora/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Enabled   bool
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider     string // groq, openai, openrouter, ollama
	Model        string // llama-3.3-70b-versatile, gpt-4o, etc.
	APIKey       string
	BaseURL      string
	VisionModels []string // tried in order for image explanation
	MaxTokens    int      // default: 1024
	Temperature  float32  // default: 0.5
	Timeout      int      // request timeout in seconds (default: 120)
}

// NewConfigFromProfile builds the AI configuration from the instance profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Enabled: p.IsAIEnabled(),
		Embedding: EmbeddingConfig{
			Provider:   p.EmbeddingProvider,
			Model:      p.EmbeddingModel,
			APIKey:     p.EmbeddingAPIKey,
			BaseURL:    p.EmbeddingBaseURL,
			Dimensions: p.EmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:     p.LLMProvider,
			Model:        p.LLMModel,
			APIKey:       p.LLMAPIKey,
			BaseURL:      p.LLMBaseURL,
			VisionModels: p.LLMVisionModels,
			MaxTokens:    1024,
			Temperature:  0.5,
			Timeout:      p.LLMTimeout,
		},
	}
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if !c.Enabled {
		return errors.New("AI is not enabled: LLM API key missing")
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}
	return nil
}
