package support

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "support",
		Name:      "mutations_total",
		Help:      "Ticket store mutations by operation and outcome.",
	}, []string{"op", "outcome"})

	acknowledgementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "support",
		Name:      "acknowledgements_total",
		Help:      "Automated acknowledgements by outcome (sent, skipped, failed).",
	}, []string{"outcome"})
)

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mutationsTotal.WithLabelValues(op, outcome).Inc()
}
