package lesson

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/edustack/mentora/ai"
	"github.com/edustack/mentora/plugin/youtube"
	"github.com/edustack/mentora/store"
)

type fakeLLM struct {
	reply     string
	err       error
	visionErr error
	messages  []ai.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []ai.Message) (string, *ai.CallStats, error) {
	f.messages = messages
	if f.err != nil {
		return "", nil, f.err
	}
	return f.reply, &ai.CallStats{}, nil
}

func (f *fakeLLM) ChatVision(ctx context.Context, prompt, imageDataURL string) (string, error) {
	if f.visionErr != nil {
		return "", f.visionErr
	}
	return "vision: " + prompt, nil
}

type fakeVideos struct {
	video *youtube.Video
	err   error
}

func (f *fakeVideos) Search(ctx context.Context, query string) (*youtube.Video, error) {
	return f.video, f.err
}

type recordingLogger struct {
	topics []string
	err    error
}

func (r *recordingLogger) LogActivity(ctx context.Context, topic, answer string) error {
	if r.err != nil {
		return r.err
	}
	r.topics = append(r.topics, topic)
	return nil
}

func readyRetriever(images ...*store.ScoredPoint) *Retriever {
	vectors := &fakeVectorStore{exists: true, texts: []*store.ScoredPoint{textPoint("Cells divide.")}}
	vectors.images = images
	return NewRetriever(&fakeEmbedder{}, vectors, nil)
}

func TestAnswerLesson(t *testing.T) {
	llm := &fakeLLM{reply: "Mitosis is cell division."}
	history := &recordingLogger{}
	video := &youtube.Video{URL: "https://www.youtube.com/watch?v=abc"}
	o := NewOrchestrator(readyRetriever(), llm, &fakeVideos{video: video}, history)

	result := o.AnswerLesson(context.Background(), "mitosis", "")
	require.Equal(t, "Mitosis is cell division.", result.Answer)
	require.Equal(t, video, result.Video)
	require.Equal(t, []string{"mitosis"}, history.topics)

	// Exactly one system and one user message; system prompt carries the
	// retrieved context and the default language.
	require.Len(t, llm.messages, 2)
	require.Equal(t, "system", llm.messages[0].Role)
	require.Equal(t, "user", llm.messages[1].Role)
	require.Contains(t, llm.messages[0].Content, "Cells divide.")
	require.Contains(t, llm.messages[0].Content, defaultLanguage)
	require.Equal(t, "mitosis", llm.messages[1].Content)
}

func TestAnswerLessonLanguage(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	o := NewOrchestrator(readyRetriever(), llm, nil, nil)

	o.AnswerLesson(context.Background(), "mitosis", "Hindi")
	require.Contains(t, llm.messages[0].Content, "Hindi")
}

func TestAnswerLessonGenerationFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model overloaded")}
	history := &recordingLogger{}
	o := NewOrchestrator(readyRetriever(), llm, nil, history)

	result := o.AnswerLesson(context.Background(), "mitosis", "")
	require.NotEmpty(t, result.Answer)
	require.Contains(t, result.Answer, "model overloaded")
	require.Empty(t, history.topics, "failed generations must not be logged to history")
}

func TestAnswerLessonHistoryFailureDoesNotFailLesson(t *testing.T) {
	llm := &fakeLLM{reply: "fine"}
	o := NewOrchestrator(readyRetriever(), llm, nil, &recordingLogger{err: errors.New("store down")})

	result := o.AnswerLesson(context.Background(), "mitosis", "")
	require.Equal(t, "fine", result.Answer)
}

func TestAnswerLessonVideoFailureIsolated(t *testing.T) {
	llm := &fakeLLM{reply: "fine"}
	o := NewOrchestrator(readyRetriever(), llm, &fakeVideos{err: errors.New("quota exceeded")}, nil)

	result := o.AnswerLesson(context.Background(), "mitosis", "")
	require.Equal(t, "fine", result.Answer)
	require.Nil(t, result.Video)
}

func TestAnswerLessonImageCap(t *testing.T) {
	llm := &fakeLLM{reply: "fine"}
	retriever := readyRetriever(
		imagePoint("a.png", "a"),
		imagePoint("b.png", "b"),
		imagePoint("c.png", "c"),
	)
	o := NewOrchestrator(retriever, llm, nil, nil)

	result := o.AnswerLesson(context.Background(), "mitosis", "")
	require.LessOrEqual(t, len(result.Images), maxResponseImages)
	require.NotNil(t, result.Images)
}

func TestAnswerLessonNotIngested(t *testing.T) {
	llm := &fakeLLM{reply: "should not be called"}
	retriever := NewRetriever(&fakeEmbedder{}, &fakeVectorStore{exists: false}, nil)
	o := NewOrchestrator(retriever, llm, nil, nil)

	result := o.AnswerLesson(context.Background(), "mitosis", "")
	if !strings.Contains(result.Answer, "ingest") {
		t.Errorf("answer %q should point at ingestion", result.Answer)
	}
	require.Nil(t, llm.messages, "generation must not run before ingestion")
}

func TestGenerateQuiz(t *testing.T) {
	llm := &fakeLLM{reply: `{"questions": []}`}
	o := NewOrchestrator(readyRetriever(), llm, nil, nil)

	quiz, err := o.GenerateQuiz(context.Background(), "mitosis")
	require.NoError(t, err)
	require.Equal(t, `{"questions": []}`, quiz)

	_, err = o.GenerateQuiz(context.Background(), "")
	require.Error(t, err)
}

func TestExplainImageDefaultQuery(t *testing.T) {
	llm := &fakeLLM{}
	o := NewOrchestrator(readyRetriever(), llm, nil, nil)

	answer, err := o.ExplainImage(context.Background(), "", "data:image/png;base64,AAAA")
	require.NoError(t, err)
	require.Equal(t, "vision: Explain this.", answer)
}
