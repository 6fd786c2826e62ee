package app

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nourabuild/profile-service/internal/sdk/middleware"
	"github.com/nourabuild/profile-service/internal/sdk/store"
	"github.com/nourabuild/profile-service/internal/services/hash"
	"github.com/nourabuild/profile-service/internal/services/sentry"
)

const (
	ErrUnmarshal             = "Invalid request body"
	ErrBodyTooLarge          = "Request body too large"
	ErrMissingFields         = "All fields are required"
	ErrPasswordTooLong       = "Password must be at most 72 bytes"
	ErrMissingCredentials    = "Email and password are required"
	ErrMissingEmail          = "Email is required"
	ErrMissingImage          = "No image provided"
	ErrMissingRating         = "Rating and feedback are required"
	ErrInvalidImage          = "Invalid image"
	ErrInvalidResetToken     = "Invalid or expired reset token"
	ErrInvalidCredentials    = "Invalid credentials"
	ErrUnauthorized          = "Unauthorized: No token provided"
	ErrUserExists            = "Email already in use"
	ErrUserNotFound          = "User not found"
	ErrDatabaseNotConfigured = "Database not configured"
	ErrInternal              = "Internal server error"
)

var errorStatusMap = map[string]int{
	ErrUnmarshal:             http.StatusBadRequest,
	ErrBodyTooLarge:          http.StatusRequestEntityTooLarge,
	ErrMissingFields:         http.StatusBadRequest,
	ErrPasswordTooLong:       http.StatusBadRequest,
	ErrMissingCredentials:    http.StatusBadRequest,
	ErrMissingEmail:          http.StatusBadRequest,
	ErrMissingImage:          http.StatusBadRequest,
	ErrMissingRating:         http.StatusBadRequest,
	ErrInvalidImage:          http.StatusBadRequest,
	ErrInvalidResetToken:     http.StatusBadRequest,
	ErrInvalidCredentials:    http.StatusUnauthorized,
	ErrUnauthorized:          http.StatusUnauthorized,
	ErrUserExists:            http.StatusConflict,
	ErrUserNotFound:          http.StatusNotFound,
	ErrDatabaseNotConfigured: http.StatusInternalServerError,
	ErrInternal:              http.StatusInternalServerError,
}

func statusForError(code string) int {
	if status, ok := errorStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, code string, details map[string]string) {
	c.JSON(statusForError(code), ErrorResponse{Error: code, Details: details})
}

// writeStoreError maps a credential store failure onto a response. Failures
// that are not part of the store contract are reported as internal errors.
func (a *App) writeStoreError(c *gin.Context, handler string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(c, ErrUserNotFound, nil)
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(c, ErrUserExists, nil)
	case errors.Is(err, store.ErrInvalidOrExpired):
		writeError(c, ErrInvalidResetToken, nil)
	case errors.Is(err, store.ErrNotConfigured):
		writeError(c, ErrDatabaseNotConfigured, nil)
	default:
		a.writeInternalError(c, handler, "db", err)
	}
}

// writeHashError answers 400 for passwords bcrypt cannot hash and 500 otherwise.
func (a *App) writeHashError(c *gin.Context, handler string, err error) {
	if errors.Is(err, hash.ErrPasswordTooLong) {
		writeError(c, ErrPasswordTooLong, nil)
		return
	}
	a.writeInternalError(c, handler, "bcrypt", err)
}

// writeInternalError reports err and answers 500. In development the cause is
// included in the response.
func (a *App) writeInternalError(c *gin.Context, handler, errType string, err error) {
	a.toSentry(c, handler, errType, sentry.LevelError, err)
	a.logger.Error("request failed",
		slog.String("handler", handler),
		slog.String("error_type", errType),
		slog.String("request_id", c.GetString(middleware.RequestIDHeader)),
		slog.Any("error", err),
	)

	var details map[string]string
	if a.development {
		details = map[string]string{"cause": err.Error()}
	}
	writeError(c, ErrInternal, details)
}

func (a *App) toSentry(c *gin.Context, handler, errType string, level sentry.Level, err error) {
	a.sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("handler", handler)
		scope.SetExtra("error_type", errType)
		scope.SetLevel(level)
		if reqID := c.GetString(middleware.RequestIDHeader); reqID != "" {
			scope.SetTag("request_id", reqID)
		}
		a.sentry.CaptureException(err)
	})
}
