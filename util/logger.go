package util

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ContextLogger is a wrapper for logrus that defines which package and
// function a log is written
type ContextLogger struct {
	*logrus.Entry
}

// NewContextLogger returns a new ContextLogger for the given package
func NewContextLogger(pkg string) ContextLogger {
	contextLogger := ContextLogger{logrus.WithField("package", pkg)}
	return contextLogger
}

// InFunc is a helper method to set the func field for the logger
func (c ContextLogger) InFunc(function string) ContextLogger {
	c.Entry = c.WithField("func", function)
	return c
}

// SetLogLevel configures the global log level from the DEBUG env var
func SetLogLevel() {
	logrus.SetLevel(logrus.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
