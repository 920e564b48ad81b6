// Package logger configures the logrus logger shared by all components.
package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup returns a logger writing to out. verbose forces debug level.
func Setup(out io.Writer, level string, asJSON, verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if asJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	l.SetLevel(StringToLogrusLogType(level))
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// StringToLogrusLogType will convert string to the right logrus level
func StringToLogrusLogType(logLevel string) logrus.Level {
	switch strings.ToLower(logLevel) {
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}
