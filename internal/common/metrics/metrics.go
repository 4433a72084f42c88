package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_processed_total",
			Help: "Total number of conversation turns processed, by outcome",
		},
		[]string{"outcome"},
	)

	GibberishDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_gibberish_detected_total",
			Help: "Total number of inbound messages judged as gibberish",
		},
	)

	OracleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_oracle_failures_total",
			Help: "Total number of oracle calls recovered by a deterministic fallback",
		},
		[]string{"call"},
	)

	LeadClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_lead_classifications_total",
			Help: "Total number of per-turn lead classifications, by result",
		},
		[]string{"classification"},
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "chat_turn_duration_seconds",
			Help: "Duration of a full conversation turn in seconds",
		},
	)
)
