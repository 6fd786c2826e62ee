package store

import (
	"context"
	"time"

	"github.com/nourabuild/profile-service/internal/sdk/models"
)

// Disabled is used when the selected backend has no connection settings.
// Every operation fails with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Ping(context.Context) error { return ErrNotConfigured }

func (Disabled) Close() error { return nil }

func (Disabled) CreateUser(context.Context, models.NewUser) (models.User, error) {
	return models.User{}, ErrNotConfigured
}

func (Disabled) GetUserByID(context.Context, string) (models.User, error) {
	return models.User{}, ErrNotConfigured
}

func (Disabled) GetUserByEmail(context.Context, string) (models.User, error) {
	return models.User{}, ErrNotConfigured
}

func (Disabled) UpdateUser(context.Context, string, models.UserUpdate) (models.User, error) {
	return models.User{}, ErrNotConfigured
}

func (Disabled) UpdatePassword(context.Context, string, string) error {
	return ErrNotConfigured
}

func (Disabled) SetProfilePic(context.Context, string, *string) (models.User, error) {
	return models.User{}, ErrNotConfigured
}

func (Disabled) CreateResetToken(context.Context, models.PasswordResetToken) error {
	return ErrNotConfigured
}

func (Disabled) ConsumeResetToken(context.Context, string, string, time.Time) error {
	return ErrNotConfigured
}
