// Package insight persists student interactions and derives learning
// analytics (weak/strong topics, activity histograms, recommendations)
// from the history.
package insight

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edustack/mentora/ai"
	"github.com/edustack/mentora/store"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
	summaryLimit    = 150
	defaultListSize = 10
)

// HistoryStore is the slice of the vector store the engine needs.
type HistoryStore interface {
	CreateCollection(ctx context.Context, name string, dimensions int) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	UpsertPoints(ctx context.Context, collection string, points []*store.Point) error
	ScrollPoints(ctx context.Context, collection string, limit int, filter *store.PointFilter) ([]*store.Point, error)
	DeletePoint(ctx context.Context, collection string, id string) (bool, error)
}

// Embedder encodes history topics into the shared vector space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ChatService is the LLM surface used for recommendations and suggestions.
type ChatService interface {
	Chat(ctx context.Context, messages []ai.Message) (string, *ai.CallStats, error)
}

// Record is one student interaction.
type Record struct {
	ID         string `json:"id"`
	Topic      string `json:"topic"`
	Summary    string `json:"summary"`
	FullAnswer string `json:"-"`
	Date       string `json:"date"` // YYYY-MM-DD HH:MM:SS
}

// Engine is the history and analytics engine.
type Engine struct {
	store    HistoryStore
	embedder Embedder
	llm      ChatService // optional
	now      func() time.Time
}

// NewEngine creates the engine. llm may be nil; recommendation calls then use
// their fixed fallbacks.
func NewEngine(historyStore HistoryStore, embedder Embedder, llm ChatService) *Engine {
	return &Engine{
		store:    historyStore,
		embedder: embedder,
		llm:      llm,
		now:      time.Now,
	}
}

// Init creates the history collection if it does not exist.
func (e *Engine) Init(ctx context.Context) error {
	return e.store.CreateCollection(ctx, store.HistoryCollection, e.embedder.Dimensions())
}

// LogActivity records one interaction: fresh UUID, current timestamp, and a
// summary truncated to 150 characters.
func (e *Engine) LogActivity(ctx context.Context, topic, answer string) error {
	vector, err := e.embedder.Embed(ctx, topic)
	if err != nil {
		return errors.Wrap(err, "failed to embed history topic")
	}

	point := &store.Point{
		ID:     uuid.NewString(),
		Vector: vector,
		Payload: store.Payload{
			Kind:       store.KindHistory,
			Topic:      topic,
			Summary:    summarize(answer),
			FullAnswer: answer,
			Timestamp:  e.now().Format(timestampLayout),
		},
	}
	return e.store.UpsertPoints(ctx, store.HistoryCollection, []*store.Point{point})
}

// ListHistory returns the most recent records, newest first.
// limit <= 0 uses the default of 10.
func (e *Engine) ListHistory(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = defaultListSize
	}
	records, err := e.allRecords(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// DeleteRecord removes a record by id. A missing id or an unavailable store
// yields false, not an error.
func (e *Engine) DeleteRecord(ctx context.Context, id string) bool {
	deleted, err := e.store.DeletePoint(ctx, store.HistoryCollection, id)
	if err != nil {
		slog.Warn("history: delete failed", "id", id, "error", err)
		return false
	}
	return deleted
}

// allRecords fetches every history record sorted by timestamp descending.
// The fixed timestamp format makes lexicographic order chronological.
func (e *Engine) allRecords(ctx context.Context) ([]*Record, error) {
	points, err := e.store.ScrollPoints(ctx, store.HistoryCollection, 0, store.FilterByKind(store.KindHistory))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scroll history")
	}

	records := make([]*Record, 0, len(points))
	for _, point := range points {
		records = append(records, &Record{
			ID:         point.ID,
			Topic:      point.Payload.Topic,
			Summary:    point.Payload.Summary,
			FullAnswer: point.Payload.FullAnswer,
			Date:       point.Payload.Timestamp,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	return records, nil
}

func summarize(answer string) string {
	runes := []rune(answer)
	if len(runes) <= summaryLimit {
		return answer
	}
	return string(runes[:summaryLimit]) + "..."
}
