package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer = "test-issuer"
	testSecret = "test-secret"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func newTestService(c *clock) *TokenService {
	return NewTokenService(testSecret, testIssuer, time.Hour, WithClock(c.Now))
}

func TestNewTokenService(t *testing.T) {
	srv := NewTokenService(testSecret, testIssuer, 0)
	if srv == nil {
		t.Fatal("NewTokenService() returned nil")
	}
	if srv.TTL() != DefaultTTL {
		t.Fatalf("expected default ttl %v, got %v", DefaultTTL, srv.TTL())
	}
}

func TestIssue(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := NewTokenService(testSecret, testIssuer, time.Hour)
		token, err := srv.Issue("user-123")
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if token == "" {
			t.Fatal("expected non-empty token")
		}
	})

	t.Run("tokens are distinct", func(t *testing.T) {
		c := &clock{t: time.Unix(1_700_000_000, 0)}
		srv := newTestService(c)

		first, err := srv.Issue("user-123")
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		second, err := srv.Issue("user-123")
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if first == second {
			t.Fatal("expected two issued tokens to differ")
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		srv := NewTokenService("", testIssuer, time.Hour)
		_, err := srv.Issue("user-123")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "creating token") {
			t.Fatalf("expected wrapped create error, got %v", err)
		}
	})
}

func TestVerify(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := NewTokenService(testSecret, testIssuer, time.Hour)
		token, err := srv.Issue("user-123")
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}

		userID, err := srv.Verify(token)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if userID != "user-123" {
			t.Fatalf("expected user-123, got %q", userID)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		srv := NewTokenService(testSecret, testIssuer, time.Hour)
		if _, err := srv.Verify(""); !errors.Is(err, ErrTokenNotFound) {
			t.Fatalf("expected ErrTokenNotFound, got %v", err)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		srv := NewTokenService(testSecret, testIssuer, time.Hour)
		if _, err := srv.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenService("other-secret", testIssuer, time.Hour).Issue("user-123")
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}

		srv := NewTokenService(testSecret, testIssuer, time.Hour)
		if _, err := srv.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewTokenService(testSecret, "someone-else", time.Hour).Issue("user-123")
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}

		srv := NewTokenService(testSecret, testIssuer, time.Hour)
		if _, err := srv.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		now := time.Now()
		claims := jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("signing returned error: %v", err)
		}

		srv := NewTokenService(testSecret, testIssuer, time.Hour)
		if _, err := srv.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		srv := NewTokenService(testSecret, testIssuer, time.Hour)
		token, err := srv.Issue("")
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if _, err := srv.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestVerifyExpiryBoundary(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	c := &clock{t: issuedAt}
	srv := newTestService(c)

	token, err := srv.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "at issuance", at: issuedAt},
		{name: "half way", at: issuedAt.Add(30 * time.Minute)},
		{name: "last second", at: issuedAt.Add(time.Hour - time.Second)},
		{name: "at expiry", at: issuedAt.Add(time.Hour), wantErr: ErrExpiredToken},
		{name: "after expiry", at: issuedAt.Add(2 * time.Hour), wantErr: ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.t = tt.at

			userID, err := srv.Verify(token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify returned error: %v", err)
			}
			if userID != "user-123" {
				t.Fatalf("expected user-123, got %q", userID)
			}
		})
	}
}
