// Package sentry reports handler failures to Sentry. Without a DSN every call
// is a no-op.
package sentry

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

type (
	Level = sentry.Level
	Scope = sentry.Scope
)

const (
	LevelError   = sentry.LevelError
	LevelWarning = sentry.LevelWarning
)

type SentryService struct {
	initialized bool
}

// NewSentryService initializes the Sentry client for dsn. An empty dsn or a
// failed initialization yields a disabled service.
func NewSentryService(dsn, environment, release string, logger *slog.Logger) *SentryService {
	if dsn == "" {
		logger.Info("SENTRY_DSN not set, error reporting disabled")
		return &SentryService{}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		TracesSampleRate: 0.2,
		EnableTracing:    true,
	})
	if err != nil {
		logger.Error("sentry initialization failed", slog.Any("error", err))
		return &SentryService{}
	}

	logger.Info("sentry initialized", slog.String("environment", environment))
	return &SentryService{initialized: true}
}

// Enabled reports whether events are sent.
func (s *SentryService) Enabled() bool {
	return s != nil && s.initialized
}

// CaptureException captures an error and sends it to Sentry
func (s *SentryService) CaptureException(err error) {
	if !s.Enabled() {
		return
	}
	sentry.CaptureException(err)
}

// Flush waits for all events to be sent to Sentry
func (s *SentryService) Flush(timeout time.Duration) bool {
	if !s.Enabled() {
		return true
	}
	return sentry.Flush(timeout)
}

// Close flushes and closes the Sentry client
func (s *SentryService) Close() {
	s.Flush(2 * time.Second)
}

// WithScope executes a function with a new Sentry scope
func (s *SentryService) WithScope(fn func(scope *Scope)) {
	if !s.Enabled() {
		return
	}
	sentry.WithScope(fn)
}
