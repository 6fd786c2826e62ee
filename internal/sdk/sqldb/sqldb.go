// Package sqldb provides a PostgreSQL-backed credential store.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nourabuild/profile-service/internal/sdk/models"
	"github.com/nourabuild/profile-service/internal/sdk/store"
)

// lib/pq errorCodeNames
// https://github.com/lib/pq/blob/master/error.go#L178
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name    TEXT,
	last_name     TEXT,
	phone         TEXT,
	address       TEXT,
	profile_pic   TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS password_reset_tokens (
	user_id    TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
`

const userColumns = `id, name, email, password_hash, first_name, last_name, phone, address, profile_pic, created_at, updated_at`

type DB struct {
	db *sql.DB
}

var _ store.Service = (*DB)(nil)

// New opens a connection pool for dsn and verifies it with a ping.
func New(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{db: db}, nil
}

// Migrate creates the tables the store needs when they do not exist yet.
func (s *DB) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *DB) Close() error {
	return s.db.Close()
}

// ---------------------------------------------
// Users
// ---------------------------------------------

// CreateUser inserts a new user. The unique index on email rejects duplicates.
func (s *DB) CreateUser(ctx context.Context, nu models.NewUser) (models.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, uuid.NewString(), nu.Name, nu.Email, nu.PasswordHash))
	if err != nil {
		if isPgError(err, uniqueViolation) {
			return models.User{}, store.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *DB) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, fmt.Errorf("selecting user: %w", err)
	}

	return user, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, fmt.Errorf("selecting user by email: %w", err)
	}

	return user, nil
}

// UpdateUser reads the current row, applies the partial update and writes the
// profile columns back.
func (s *DB) UpdateUser(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error) {
	current, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	upd.Apply(&current)

	query := `
		UPDATE users
		SET name = $2,
		    email = $3,
		    first_name = $4,
		    last_name = $5,
		    phone = $6,
		    address = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query,
		userID,
		current.Name,
		current.Email,
		NullString(current.FirstName),
		NullString(current.LastName),
		NullString(current.Phone),
		NullString(current.Address),
	))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.User{}, store.ErrNotFound
		case isPgError(err, uniqueViolation):
			return models.User{}, store.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("updating user: %w", err)
	}

	return user, nil
}

func (s *DB) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2,
		    updated_at = now()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *DB) SetProfilePic(ctx context.Context, userID string, pic *string) (models.User, error) {
	query := `
		UPDATE users
		SET profile_pic = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, userID, NullString(pic)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, fmt.Errorf("setting profile picture: %w", err)
	}

	return user, nil
}

// ---------------------------------------------
// Password Reset Tokens
// ---------------------------------------------

// CreateResetToken stores token, replacing any earlier token of the same user.
func (s *DB) CreateResetToken(ctx context.Context, token models.PasswordResetToken) error {
	const query = `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token,
		    expires_at = EXCLUDED.expires_at
	`

	if _, err := s.db.ExecContext(ctx, query, token.UserID, token.Token, token.ExpiresAt); err != nil {
		return fmt.Errorf("creating reset token: %w", err)
	}

	return nil
}

// ConsumeResetToken deletes the matching token in one statement, so a token
// can be redeemed at most once. A mismatched token deletes nothing.
func (s *DB) ConsumeResetToken(ctx context.Context, userID, token string, now time.Time) error {
	const query = `
		DELETE FROM password_reset_tokens
		WHERE user_id = $1 AND token = $2
		RETURNING expires_at
	`

	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx, query, userID, token).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrInvalidOrExpired
		}
		return fmt.Errorf("consuming reset token: %w", err)
	}

	_, err = store.CheckResetToken(models.PasswordResetToken{UserID: userID, Token: token, ExpiresAt: expiresAt}, token, now)
	return err
}

// ---------------------------------------------
// Helpers
// ---------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	var firstName, lastName, phone, address, profilePic sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&firstName,
		&lastName,
		&phone,
		&address,
		&profilePic,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	user.FirstName = StringPtr(firstName)
	user.LastName = StringPtr(lastName)
	user.Phone = StringPtr(phone)
	user.Address = StringPtr(address)
	user.ProfilePic = StringPtr(profilePic)

	return user, nil
}

// isPgError checks if the error is a PostgreSQL error with the given code
func isPgError(err error, code string) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == code
	}
	return false
}

// NullString creates a sql.NullString from a string pointer.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr returns a pointer to a string from sql.NullString.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
