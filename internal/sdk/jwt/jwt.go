// Package jwt issues and verifies the session tokens handed out at signup,
// signin and token validation.
//
// Tokens are stateless: the server verifies the signature and the expiry and
// never looks them up. A token carries the user id as its subject and expires
// a fixed duration (one hour by default) after it was issued.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

// Use errors.Is to tell them apart: errors.Is(err, jwt.ErrExpiredToken)
var (
	ErrInvalidToken  = errors.New("jwt: invalid token")
	ErrExpiredToken  = errors.New("jwt: token has expired")
	ErrTokenNotFound = errors.New("jwt: token not found")
)

// DefaultTTL is the lifetime of a session token.
const DefaultTTL = time.Hour

// =============================================================================
// Token Service
// =============================================================================

// TokenService creates and validates session tokens.
// Create one instance and share it between handlers and middleware.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithClock replaces the wall clock used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService signing with secret. A ttl of zero
// selects DefaultTTL.
//
// Example:
//
//	tokens := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
//	token, err := tokens.Issue(user.ID)
func NewTokenService(secret, issuer string, ttl time.Duration, opts ...Option) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		// Only accept HS256 algorithm - prevents "algorithm confusion" attacks
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),

		// Reject tokens without an expiration time
		jwt.WithExpirationRequired(),

		// Enforce strict base64 encoding
		jwt.WithStrictDecoding(),

		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)

	return s
}

// TTL reports how long an issued token stays valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// =============================================================================
// Public Methods
// =============================================================================

// Issue signs a new token for userID. Every call yields a distinct token.
func (s *TokenService) Issue(userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("creating token: empty signing secret")
	}

	now := s.now().Truncate(time.Second)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("creating token: %w", err)
	}

	return token, nil
}

// Verify checks the token and returns the user id it was issued for. A token
// is accepted while the current time is strictly before its expiry.
func (s *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrTokenNotFound
	}

	claims := &jwt.RegisteredClaims{}

	token, err := s.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", convertError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// =============================================================================
// Private Methods
// =============================================================================

// convertError transforms jwt library errors into our custom errors.
func convertError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: token is malformed", ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: signature is invalid", ErrInvalidToken)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
