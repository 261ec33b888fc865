package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "session",
		Name:      "mutations_total",
		Help:      "Session mutations by operation and outcome.",
	}, []string{"op", "outcome"})

	authFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "session",
		Name:      "auth_failures_total",
		Help:      "Login and registration calls rejected or unreachable.",
	}, []string{"op"})
)

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mutationsTotal.WithLabelValues(op, outcome).Inc()
}
