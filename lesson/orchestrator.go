package lesson

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/edustack/mentora/ai"
	"github.com/edustack/mentora/plugin/youtube"
)

const (
	defaultLanguage   = "English"
	maxResponseImages = 2
)

// VideoFinder locates one supplementary educational video.
type VideoFinder interface {
	Search(ctx context.Context, query string) (*youtube.Video, error)
}

// ActivityLogger records a successful lesson in the student history.
type ActivityLogger interface {
	LogActivity(ctx context.Context, topic, answer string) error
}

// LessonResult is the answer returned for one lesson query.
type LessonResult struct {
	Answer string         `json:"answer"`
	Images []Image        `json:"images"`
	Video  *youtube.Video `json:"video"`
}

// Orchestrator composes retrieval, generation, video enrichment and history
// logging into one lesson. Failures of enrichments are swallowed; failure of
// the primary answer degrades to an apologetic text, never an error.
type Orchestrator struct {
	retriever *Retriever
	llm       ai.LLMService
	videos    VideoFinder    // optional
	history   ActivityLogger // optional
}

// NewOrchestrator wires the lesson pipeline. videos and history may be nil.
func NewOrchestrator(retriever *Retriever, llm ai.LLMService, videos VideoFinder, history ActivityLogger) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		llm:       llm,
		videos:    videos,
		history:   history,
	}
}

// AnswerLesson produces a tutoring answer for the query in the requested
// language, with up to two supporting images and an optional video.
func (o *Orchestrator) AnswerLesson(ctx context.Context, query, language string) *LessonResult {
	lessonsServed.Inc()

	if language == "" {
		language = defaultLanguage
	}

	if err := o.retriever.Ready(ctx); err != nil {
		slog.Warn("lesson: retrieval not ready", "error", err)
		generationFailures.Inc()
		return &LessonResult{Answer: readinessAnswer(err), Images: []Image{}}
	}

	// The video lookup is independent of generation; run it alongside.
	videoCh := make(chan *youtube.Video, 1)
	go func() {
		videoCh <- o.findVideo(ctx, query)
	}()

	bundle := o.retriever.Retrieve(ctx, query)

	messages := []ai.Message{
		ai.SystemPrompt(tutorSystemPrompt(query, language, bundle.ContextText)),
		ai.UserMessage(query),
	}

	answer, _, genErr := o.llm.Chat(ctx, messages)
	if genErr != nil {
		slog.Error("lesson: generation failed", "query", query, "error", genErr)
		generationFailures.Inc()
		answer = fmt.Sprintf("I'm having trouble thinking right now (%v). Please try again in a moment.", genErr)
	} else if o.history != nil {
		if err := o.history.LogActivity(ctx, query, answer); err != nil {
			slog.Warn("lesson: failed to log activity", "topic", query, "error", err)
		}
	}

	images := bundle.Images
	if len(images) > maxResponseImages {
		images = images[:maxResponseImages]
	}
	if images == nil {
		images = []Image{}
	}

	return &LessonResult{
		Answer: answer,
		Images: images,
		Video:  <-videoCh,
	}
}

// GenerateQuiz asks the model for a three-question multiple-choice quiz.
func (o *Orchestrator) GenerateQuiz(ctx context.Context, topic string) (string, error) {
	if topic == "" {
		return "", errors.New("quiz topic is required")
	}
	quiz, _, err := o.llm.Chat(ctx, []ai.Message{ai.UserMessage(quizPrompt(topic))})
	if err != nil {
		return "", fmt.Errorf("quiz generation failed: %w", err)
	}
	return quiz, nil
}

// ExplainImage explains a student-provided image via the vision model chain.
func (o *Orchestrator) ExplainImage(ctx context.Context, query, imageDataURL string) (string, error) {
	if query == "" {
		query = "Explain this."
	}
	return o.llm.ChatVision(ctx, query, imageDataURL)
}

func (o *Orchestrator) findVideo(ctx context.Context, query string) *youtube.Video {
	if o.videos == nil {
		return nil
	}
	video, err := o.videos.Search(ctx, query)
	if err != nil {
		slog.Warn("lesson: video lookup failed", "query", query, "error", err)
		return nil
	}
	return video
}

func readinessAnswer(err error) string {
	if errors.Is(err, ErrCollectionMissing) {
		return "The textbook knowledge base has not been ingested yet. Run `mentora ingest` to load study material, then ask again."
	}
	return "The tutoring service is not fully initialized. Please try again later."
}
