package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enhancement outcomes used as metric labels.
const (
	outcomeSuccess       = "success"
	outcomeNotConfigured = "not_configured"
	outcomeCallFailed    = "call_failed"
	outcomeBadResponse   = "bad_response"
	outcomeEmpty         = "empty"
)

var (
	enhancementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_enhancements_total",
			Help: "Prompt enhancement attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	enhancementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_enhancement_provider_duration_seconds",
			Help:    "Latency of provider calls made for prompt enhancement.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider"},
	)

	authEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication and password reset events by outcome.",
		},
		[]string{"event", "outcome"},
	)
)
