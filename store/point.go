package store

import "github.com/pkg/errors"

// Collection names used by the tutoring backend.
const (
	// KnowledgeCollection holds ingested textbook passages and diagram descriptions.
	KnowledgeCollection = "textbook_knowledge"
	// HistoryCollection holds student interaction records.
	HistoryCollection = "student_history"
)

// Kind tags the payload variant of a vector point.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindHistory Kind = "history"
)

// Payload is the tagged metadata attached to a vector point.
// Exactly one variant applies, selected by Kind and validated at the store boundary.
type Payload struct {
	Kind Kind `json:"kind"`

	// Knowledge variants (text, image).
	Content   string `json:"content,omitempty"`
	Page      int    `json:"page,omitempty"`
	Source    string `json:"source,omitempty"`
	ImagePath string `json:"image_path,omitempty"`

	// History variant.
	Topic      string `json:"topic,omitempty"`
	Summary    string `json:"summary,omitempty"`
	FullAnswer string `json:"full_answer,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"` // YYYY-MM-DD HH:MM:SS
}

// Validate checks that the payload carries the fields its kind requires.
func (p *Payload) Validate() error {
	switch p.Kind {
	case KindText:
		if p.Content == "" {
			return errors.New("text payload requires content")
		}
	case KindImage:
		if p.Content == "" {
			return errors.New("image payload requires a description")
		}
		if p.ImagePath == "" {
			return errors.New("image payload requires an image path")
		}
	case KindHistory:
		if p.Topic == "" {
			return errors.New("history payload requires a topic")
		}
		if p.Timestamp == "" {
			return errors.New("history payload requires a timestamp")
		}
	default:
		return errors.Errorf("unknown payload kind %q", p.Kind)
	}
	return nil
}

// Point is a vector point stored in a collection.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a point returned from similarity search with its score.
type ScoredPoint struct {
	Point
	Score float32
}

// PointFilter narrows search and scroll results by payload fields.
type PointFilter struct {
	Kind *Kind
}

// FilterByKind is a convenience constructor for the common kind filter.
func FilterByKind(kind Kind) *PointFilter {
	return &PointFilter{Kind: &kind}
}
