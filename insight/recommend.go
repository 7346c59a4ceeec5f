package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edustack/mentora/ai"
)

const maxRecommendationTopics = 5

var defaultRecommendations = []string{
	"Review your weakest topics with a short quiz.",
	"Revisit a topic you have not studied in over a week.",
}

// Recommendations returns the study suggestions of the current snapshot.
func (e *Engine) Recommendations(ctx context.Context) []string {
	return e.AnalyzeLearningPatterns(ctx).Recommendations
}

// recommendFor asks the LLM for short study suggestions grounded in the
// weakest topics. Without an LLM, or when the call fails, it returns the
// fixed default suggestions.
func (e *Engine) recommendFor(ctx context.Context, weakTopics []TopicStat) []string {
	if len(weakTopics) == 0 || e.llm == nil {
		return defaultRecommendations
	}

	topics := make([]string, 0, maxRecommendationTopics)
	for _, stat := range weakTopics {
		if len(topics) == maxRecommendationTopics {
			break
		}
		topics = append(topics, fmt.Sprintf("%s (studied %d time(s), last %d day(s) ago)", stat.Topic, stat.Frequency, stat.DaysSince))
	}

	prompt := fmt.Sprintf(`A student shows weakness in these topics:
%s

Give 2-3 short, encouraging study recommendations, one per line. No headings, no numbering preamble.`, strings.Join(topics, "\n"))

	reply, _, err := e.llm.Chat(ctx, []ai.Message{ai.UserMessage(prompt)})
	if err != nil {
		slog.Warn("analytics: recommendation generation failed", "error", err)
		return defaultRecommendations
	}

	lines := splitRecommendations(reply)
	if len(lines) == 0 {
		return defaultRecommendations
	}
	return lines
}

// SuggestNextTopic asks the LLM for one next topic based on the three most
// recent studied topics. An empty history suggests a starting point; any
// failure yields a fixed suggestion.
func (e *Engine) SuggestNextTopic(ctx context.Context) string {
	records, err := e.ListHistory(ctx, 3)
	if err != nil {
		slog.Warn("analytics: failed to load recent topics", "error", err)
		return "Try studying 'Photosynthesis' next!"
	}
	if len(records) == 0 {
		return "Start by asking about 'Cell Structure' or 'DNA'!"
	}
	if e.llm == nil {
		return "Try studying 'Photosynthesis' next!"
	}

	topics := make([]string, 0, len(records))
	for _, record := range records {
		topics = append(topics, record.Topic)
	}

	prompt := fmt.Sprintf("A student recently studied: %s. Suggest exactly one related topic to study next, with a one-sentence reason. Answer in one sentence.", strings.Join(topics, ", "))
	reply, _, err := e.llm.Chat(ctx, []ai.Message{ai.UserMessage(prompt)})
	if err != nil || strings.TrimSpace(reply) == "" {
		slog.Warn("analytics: next-topic suggestion failed", "error", err)
		return "Try studying 'Photosynthesis' next!"
	}
	return strings.TrimSpace(reply)
}

// splitRecommendations keeps non-empty, non-heading lines from the reply.
func splitRecommendations(reply string) []string {
	var lines []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if line == "" || strings.HasPrefix(line, "#") || strings.HasSuffix(line, ":") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
