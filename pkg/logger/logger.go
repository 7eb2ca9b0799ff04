// Package logger provides the shared structured logger for all components.
// Components receive a *Logger and attach fields with WithField; the
// underlying implementation is logrus with a text formatter.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a service-scoped structured logger.
type Logger struct {
	*logrus.Entry
}

// New creates a logger for the given service at the given level.
func New(service string, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &Logger{Entry: l.WithField("service", service)}
}

// NewDefault creates a logger for the given service at info level.
func NewDefault(service string) *Logger {
	return New(service, logrus.InfoLevel)
}

// ParseLevel converts a config string into a logrus level, defaulting to info.
func ParseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(strings.ToLower(s)))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", name)}
}
