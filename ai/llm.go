package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// CallStats represents statistics for a single LLM call.
type CallStats struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	TotalDurationMs  int64 `json:"total_duration_ms"`
}

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs synchronous chat. Returns content, statistics, and error.
	Chat(ctx context.Context, messages []Message) (string, *CallStats, error)

	// ChatVision sends a prompt plus one image (as a data URL) to the vision
	// model chain. Models are tried in order, first success wins.
	ChatVision(ctx context.Context, prompt string, imageDataURL string) (string, error)
}

type llmService struct {
	client       *openai.Client
	model        string
	provider     string
	visionModels []string
	maxTokens    int
	temperature  float32
	timeout      int // request timeout in seconds
}

// NewLLMService creates a new LLMService.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	if cfg.APIKey == "" && cfg.Provider != "ollama" {
		return nil, errors.New("LLM API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &llmService{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		provider:     cfg.Provider,
		visionModels: cfg.VisionModels,
		maxTokens:    maxTokens,
		temperature:  cfg.Temperature,
		timeout:      timeout,
	}, nil
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, *CallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("LLM: chat request",
		"model", s.model,
		"messages_count", len(messages),
		"max_tokens", s.maxTokens,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: chat request failed", "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("LLM: empty response")
		return "", nil, errors.New("empty response from LLM")
	}

	totalDuration := time.Since(startTime)
	stats := &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	slog.Debug("LLM: chat response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", totalDuration.Milliseconds(),
	)

	return resp.Choices[0].Message.Content, stats, nil
}

// ChatVision tries each configured vision model in order and returns the first
// successful explanation. All failures are aggregated into one error.
func (s *llmService) ChatVision(ctx context.Context, prompt string, imageDataURL string) (string, error) {
	models := s.visionModels
	if len(models) == 0 {
		models = []string{s.model}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	req := openai.ChatCompletionRequest{
		MaxTokens: s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageDataURL},
					},
				},
			},
		},
	}

	var failures []error
	for _, model := range models {
		req.Model = model
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			slog.Warn("LLM: vision model failed, trying next", "model", model, "error", err)
			failures = append(failures, fmt.Errorf("model %s: %w", model, err))
			continue
		}
		if len(resp.Choices) == 0 {
			failures = append(failures, fmt.Errorf("model %s: empty response", model))
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("all vision models failed: %w", errors.Join(failures...))
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
