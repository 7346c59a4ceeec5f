package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessages(t *testing.T) {
	messages := []Message{
		SystemPrompt("be helpful"),
		UserMessage("what is a cell?"),
		{Role: "assistant", Content: "a cell is..."},
		{Role: "bogus", Content: "fallback"},
	}

	converted := convertMessages(messages)
	require.Len(t, converted, 4)
	assert.Equal(t, "system", converted[0].Role)
	assert.Equal(t, "user", converted[1].Role)
	assert.Equal(t, "assistant", converted[2].Role)
	// Unknown roles degrade to user
	assert.Equal(t, "user", converted[3].Role)
}

// fakeCompletionServer answers the OpenAI chat completion endpoint, failing
// every model except the ones listed in okModels.
func fakeCompletionServer(t *testing.T, okModels map[string]string, calls *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*calls = append(*calls, req.Model)

		answer, ok := okModels[req.Model]
		if !ok {
			http.Error(w, `{"error": {"message": "model overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": answer}},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func TestChatVisionModelFallback(t *testing.T) {
	var calls []string
	ts := fakeCompletionServer(t, map[string]string{"vision-b": "a labeled diagram of a plant cell"}, &calls)
	defer ts.Close()

	svc, err := NewLLMService(&LLMConfig{
		Provider:     "groq",
		Model:        "llama-3.3-70b-versatile",
		APIKey:       "test-key",
		BaseURL:      ts.URL + "/v1",
		VisionModels: []string{"vision-a", "vision-b"},
	})
	require.NoError(t, err)

	answer, err := svc.ChatVision(context.Background(), "Explain this.", "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "a labeled diagram of a plant cell", answer)
	// First model fails, second succeeds
	assert.Equal(t, []string{"vision-a", "vision-b"}, calls)
}

func TestChatVisionAllModelsFail(t *testing.T) {
	var calls []string
	ts := fakeCompletionServer(t, nil, &calls)
	defer ts.Close()

	svc, err := NewLLMService(&LLMConfig{
		Provider:     "groq",
		Model:        "llama-3.3-70b-versatile",
		APIKey:       "test-key",
		BaseURL:      ts.URL + "/v1",
		VisionModels: []string{"vision-a", "vision-b"},
	})
	require.NoError(t, err)

	_, err = svc.ChatVision(context.Background(), "Explain this.", "data:image/jpeg;base64,AAAA")
	require.Error(t, err)
	// Aggregated error mentions every attempted model
	assert.Contains(t, err.Error(), "vision-a")
	assert.Contains(t, err.Error(), "vision-b")
	assert.Len(t, calls, 2)
}

func TestChat(t *testing.T) {
	var calls []string
	ts := fakeCompletionServer(t, map[string]string{"llama-3.3-70b-versatile": "Mitosis is cell division."}, &calls)
	defer ts.Close()

	svc, err := NewLLMService(&LLMConfig{
		Provider: "groq",
		Model:    "llama-3.3-70b-versatile",
		APIKey:   "test-key",
		BaseURL:  ts.URL + "/v1",
	})
	require.NoError(t, err)

	answer, stats, err := svc.Chat(context.Background(), []Message{
		SystemPrompt("You are a tutor."),
		UserMessage("What is mitosis?"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mitosis is cell division.", answer)
	require.NotNil(t, stats)
	assert.Equal(t, 15, stats.TotalTokens)
}

func TestNewLLMServiceRequiresKey(t *testing.T) {
	_, err := NewLLMService(&LLMConfig{Provider: "groq", Model: "m"})
	assert.Error(t, err)

	// ollama runs locally without a key
	_, err = NewLLMService(&LLMConfig{Provider: "ollama", Model: "llama3.1", BaseURL: "http://localhost:11434/v1"})
	assert.NoError(t, err)
}
