package report

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Report kinds, as labelled in the computations metric.
const (
	KindWeekly    = "weekly"
	KindOverview  = "overview"
	KindSeries    = "series"
	KindRoster    = "roster"
	KindDashboard = "dashboard"
	KindSnapshot  = "snapshot"
)

var Computations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tahsil",
		Name:      "report_computations_total",
		Help:      "Total number of report computations, by kind and outcome",
	},
	[]string{"kind", "outcome"},
)

func observe(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Computations.WithLabelValues(kind, outcome).Inc()
}
