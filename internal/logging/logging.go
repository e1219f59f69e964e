// Package logging configures the structured logger shared by the CLI
// and the orchestrator.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger from a level name ("debug", "info", "warn",
// "error") and a format name ("json" or "text"). An empty level defaults
// to "info"; an empty format defaults to "text".
func New(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.Out = os.Stderr

	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return logger, nil
}

func parseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return logrus.InfoLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("logging: unknown level %q", level)
	}
}

// RunFields returns the standard field set attached to every orchestrator
// log line for one (query, partition) run.
func RunFields(queryName, partitionKey string) logrus.Fields {
	return logrus.Fields{
		"query":     queryName,
		"partition": partitionKey,
	}
}
