package keycloak

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keycloak_calls_total",
		Help: "Number of Keycloak API calls by operation and outcome",
	}, []string{"operation", "outcome"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "keycloak_call_duration_seconds",
		Help:    "Duration of Keycloak API calls by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	callsTotal.WithLabelValues(op, outcome).Inc()
	callDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
