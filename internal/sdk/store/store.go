// Package store defines the credential store: the component that owns user
// records and password-reset tokens.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nourabuild/profile-service/internal/sdk/models"
)

var (
	ErrNotFound         = errors.New("store: record not found")
	ErrDuplicateEmail   = errors.New("store: email already in use")
	ErrInvalidOrExpired = errors.New("store: invalid or expired reset token")
	ErrNotConfigured    = errors.New("store: database not configured")
)

// Service is implemented by every credential store backend. Implementations
// must behave identically from the caller's point of view.
type Service interface {
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error

	// User operations
	CreateUser(ctx context.Context, nu models.NewUser) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error)
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	SetProfilePic(ctx context.Context, userID string, pic *string) (models.User, error)

	// Password reset token operations
	CreateResetToken(ctx context.Context, token models.PasswordResetToken) error
	ConsumeResetToken(ctx context.Context, userID, token string, now time.Time) error
}

// CheckResetToken applies the reset-token rules shared by all backends. It
// returns whether the stored record must be deleted and the outcome of the
// check. A mismatched token leaves the record in place; success and expiry
// both delete it.
func CheckResetToken(stored models.PasswordResetToken, token string, now time.Time) (remove bool, err error) {
	if stored.Token != token {
		return false, ErrInvalidOrExpired
	}
	if !now.Before(stored.ExpiresAt) {
		return true, ErrInvalidOrExpired
	}
	return true, nil
}
