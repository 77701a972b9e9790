package logger

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config log.appname can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config log.servicename can not be empty")
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "idsync_log_dropped_events_total",
	Help: "Number of log events that could not be written.",
})

// ErrorHandler reports events zerolog failed to write on stderr and counts them.
func ErrorHandler(err error) {
	droppedEvents.Inc()

	_, _ = fmt.Fprintf(os.Stderr, "idsync: dropped log event: %v\n", err)
}
