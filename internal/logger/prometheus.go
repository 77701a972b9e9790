package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var logStatements = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "idsync_log_statements_total",
		Help: "Number of log statements by service and level.",
	},
	[]string{"service", "level"},
)

// PrometheusHook counts log statements by level.
type PrometheusHook struct {
	service string
}

// Run implements zerolog.Hook.
func (h PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel {
		logStatements.WithLabelValues(h.service, level.String()).Inc()
	}
}

// NewPrometheusHook returns a hook counting the log statements of service.
func NewPrometheusHook(service string) PrometheusHook {
	return PrometheusHook{service: service}
}
