package lesson

// ContextSentinel substitutes for an empty text-search result so generation
// can proceed on general knowledge.
const ContextSentinel = "No specific context found in the textbook."

// Image is one visual attached to a context bundle.
type Image struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// StageState classifies the outcome of one retrieval stage.
type StageState int

const (
	StageOK StageState = iota
	StageDegraded
	StageFatal
)

func (s StageState) String() string {
	switch s {
	case StageOK:
		return "ok"
	case StageDegraded:
		return "degraded"
	case StageFatal:
		return "fatal"
	}
	return "unknown"
}

// StageStatus records how a retrieval stage ended. Degraded stages carry the
// reason; they never abort the pipeline.
type StageStatus struct {
	Stage  string
	State  StageState
	Reason string
}

// Bundle is the assembled text + image evidence for one query.
// It is ephemeral and never persisted.
type Bundle struct {
	ContextText string
	Images      []Image
	Stages      []StageStatus
}

func (b *Bundle) degrade(stage string, err error) {
	b.Stages = append(b.Stages, StageStatus{Stage: stage, State: StageDegraded, Reason: err.Error()})
	retrievalDegradations.WithLabelValues(stage).Inc()
}

func (b *Bundle) ok(stage string) {
	b.Stages = append(b.Stages, StageStatus{Stage: stage, State: StageOK})
}

// Fatal reports whether the bundle was cut short before any search ran.
func (b *Bundle) Fatal() bool {
	for _, s := range b.Stages {
		if s.State == StageFatal {
			return true
		}
	}
	return false
}

// Degraded reports whether any stage fell back to an empty result.
func (b *Bundle) Degraded() bool {
	for _, s := range b.Stages {
		if s.State == StageDegraded {
			return true
		}
	}
	return false
}
