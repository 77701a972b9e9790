// Package stdlogger adapts the global zerolog logger to printf style
// logger interfaces such as gorm's logger.Writer.
package stdlogger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger writes printf style messages to the global zerolog logger.
type Logger struct {
	component string
}

// New creates a Logger. An optional component is added to every message.
func New(component ...string) *Logger {
	l := &Logger{}
	if len(component) > 0 {
		l.component = component[0]
	}

	return l
}

func (l *Logger) write(level zerolog.Level, format string, args ...any) {
	event := log.WithLevel(level)
	if l.component != "" {
		event = event.Str("component", l.component)
	}

	event.Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Printf logs at info level.
func (l *Logger) Printf(format string, args ...any) {
	l.write(zerolog.InfoLevel, format, args...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.write(zerolog.DebugLevel, format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.write(zerolog.InfoLevel, format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...any) {
	l.write(zerolog.WarnLevel, format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.write(zerolog.ErrorLevel, format, args...)
}
