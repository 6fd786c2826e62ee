package sentry

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestDisabledService(t *testing.T) {
	s := NewSentryService("", "test", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if s.Enabled() {
		t.Fatal("expected service without DSN to be disabled")
	}

	called := false
	s.WithScope(func(*Scope) { called = true })
	if called {
		t.Fatal("expected WithScope to skip the callback when disabled")
	}

	s.CaptureException(errors.New("ignored"))
	if !s.Flush(time.Millisecond) {
		t.Fatal("expected Flush on disabled service to report success")
	}
}

func TestNilService(t *testing.T) {
	var s *SentryService
	if s.Enabled() {
		t.Fatal("expected nil service to be disabled")
	}
	s.CaptureException(errors.New("ignored"))
	s.Close()
}
