package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSafe    = "safe"
	outcomeFlagged = "flagged"
	outcomeError   = "error"
)

var checkerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "moderation_checker_duration_seconds",
	Help: "Duration of moderation vendor API calls, by checker",
}, []string{"checker"})

var checkerResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_checker_results_total",
	Help: "Number of moderation vendor API calls, by checker and outcome",
}, []string{"checker", "outcome"})

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_verdicts_total",
	Help: "Number of moderation verdicts, by content kind and result",
}, []string{"kind", "result"})
