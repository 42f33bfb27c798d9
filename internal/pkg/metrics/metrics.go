package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission results
const (
	ResultAccepted       = "accepted"
	ResultInvalid        = "invalid"
	ResultStoreFailed    = "store_failed"
	ResultDispatchFailed = "dispatch_failed"
)

// Pipeline step outcomes
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

var (
	IntakeSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Intake submissions by result",
		},
		[]string{"result"},
	)

	PipelineSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_pipeline_steps_total",
			Help: "Async pipeline steps by outcome",
		},
		[]string{"step", "outcome"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "intake_pipeline_duration_seconds",
			Help:    "Wall time of one async pipeline run",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	StalledApplications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intake_stalled_applications",
			Help: "Pending applications with no analysis past the stall threshold",
		},
	)
)
