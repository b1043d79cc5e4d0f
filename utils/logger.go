package utils

import (
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger: JSON in production, text elsewhere.
func NewLogger(environment, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Component returns an entry tagged with the component name.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", name)
}

// CaptureError logs errors with structured context to both the log and Sentry
func CaptureError(log *logrus.Entry, errorType string, err error, context map[string]interface{}) {
	if err == nil {
		return
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	entry := log.WithFields(logrus.Fields{
		"error_type": errorType,
		"error":      err.Error(),
	})
	for k, v := range context {
		entry = entry.WithField(k, v)
	}
	entry.Error("Error occurred")

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_type", errorType)
		for k, v := range context {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
}

// LogEvent logs events with structured context
func LogEvent(log *logrus.Entry, eventType string, data map[string]interface{}) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log.WithField("event_type", eventType).WithFields(logrus.Fields(data)).Info("Event occurred")

	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "info",
		Category:  eventType,
		Data:      data,
		Timestamp: time.Now(),
	})
}
