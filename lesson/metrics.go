package lesson

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lessonsServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mentora",
		Subsystem: "lesson",
		Name:      "served_total",
		Help:      "Number of lesson requests answered, including degraded answers.",
	})

	generationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mentora",
		Subsystem: "lesson",
		Name:      "generation_failures_total",
		Help:      "Number of lessons where the LLM call failed and a fallback answer was served.",
	})

	retrievalDegradations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentora",
		Subsystem: "retrieval",
		Name:      "degraded_stages_total",
		Help:      "Number of retrieval stages that fell back to an empty result.",
	}, []string{"stage"})
)
