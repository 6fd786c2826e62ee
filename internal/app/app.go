package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nourabuild/profile-service/internal/sdk/jwt"
	"github.com/nourabuild/profile-service/internal/sdk/metrics"
	"github.com/nourabuild/profile-service/internal/sdk/store"
	"github.com/nourabuild/profile-service/internal/services/hash"
	"github.com/nourabuild/profile-service/internal/services/sentry"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultResetTokenTTL is how long a password reset token stays redeemable.
const DefaultResetTokenTTL = 10 * time.Minute

// AvatarStore keeps uploaded profile pictures outside the credential store.
type AvatarStore interface {
	UploadProfilePicture(ctx context.Context, userID, dataURI string) (string, error)
	DeleteProfilePicture(ctx context.Context, ref string) error
}

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, userID, resetToken string, ttl time.Duration) error
}

type App struct {
	db       store.Service
	hash     *hash.HashService
	jwt      *jwt.TokenService
	sentry   *sentry.SentryService
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	avatars AvatarStore
	email   ResetMailer

	resetTTL    time.Duration
	development bool
	now         func() time.Time
}

type Option func(*App)

// WithAvatars stores uploaded pictures in s instead of the user record.
func WithAvatars(s AvatarStore) Option {
	return func(a *App) { a.avatars = s }
}

// WithMailer sends reset links through m.
func WithMailer(m ResetMailer) Option {
	return func(a *App) { a.email = m }
}

// WithRegistry registers the service metrics with r and serves r on /metrics.
func WithRegistry(r *prometheus.Registry) Option {
	return func(a *App) { a.registry = r }
}

func WithResetTokenTTL(ttl time.Duration) Option {
	return func(a *App) { a.resetTTL = ttl }
}

// WithDevelopment adds internal error details to 500 responses.
func WithDevelopment(dev bool) Option {
	return func(a *App) { a.development = dev }
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func NewApp(
	db store.Service,
	hash *hash.HashService,
	jwt *jwt.TokenService,
	sentry *sentry.SentryService,
	logger *slog.Logger,
	opts ...Option,
) *App {
	a := &App{
		db:       db,
		hash:     hash,
		jwt:      jwt,
		sentry:   sentry,
		logger:   logger,
		resetTTL: DefaultResetTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.metrics = metrics.New(a.registry)

	return a
}
