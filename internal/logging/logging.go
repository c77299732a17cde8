// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup applies level (debug, info, warn, error) and format (text, json) to
// the standard logrus logger.
func Setup(level, format string) error {
	return configure(log.StandardLogger(), os.Stderr, level, format)
}

// New returns a separate logger writing to w, handy for tests and tools.
func New(w io.Writer, level, format string) (*log.Logger, error) {
	l := log.New()
	if err := configure(l, w, level, format); err != nil {
		return nil, err
	}
	return l, nil
}

func configure(l *log.Logger, w io.Writer, level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.SetOutput(w)
	l.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}
	return nil
}

// ParseLevel accepts debug, info, warn/warning and error, case-insensitive.
// An empty string means info.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
