package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nourabuild/profile-service/internal/sdk/models"
	"github.com/nourabuild/profile-service/internal/sdk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sqlStateError string

func (e sqlStateError) Error() string    { return "pg error " + string(e) }
func (e sqlStateError) SQLState() string { return string(e) }

func TestIsPgError(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", sqlStateError(uniqueViolation))

	assert.True(t, isPgError(wrapped, uniqueViolation))
	assert.False(t, isPgError(wrapped, "23503"))
	assert.False(t, isPgError(errors.New("plain"), uniqueViolation))
}

func TestNullStringRoundTrip(t *testing.T) {
	assert.False(t, NullString(nil).Valid)
	assert.Nil(t, StringPtr(sql.NullString{}))

	v := "x"
	ns := NullString(&v)
	require.True(t, ns.Valid)
	assert.Equal(t, "x", *StringPtr(ns))
}

// openTestDB connects to TEST_DATABASE_URL or skips the test.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestDBUserLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	user, err := db.CreateUser(ctx, models.NewUser{Name: "A", Email: email, PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = db.CreateUser(ctx, models.NewUser{Name: "B", Email: email, PasswordHash: "hash"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	phone := "555"
	phonePtr := &phone
	updated, err := db.UpdateUser(ctx, user.ID, models.UserUpdate{Phone: &phonePtr})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555", *updated.Phone)

	require.NoError(t, db.UpdatePassword(ctx, user.ID, "new-hash"))
	got, err := db.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	_, err = db.GetUserByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDBResetTokens(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := uuid.NewString()
	now := time.Now()

	require.NoError(t, db.CreateResetToken(ctx, models.PasswordResetToken{UserID: userID, Token: "a", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, db.CreateResetToken(ctx, models.PasswordResetToken{UserID: userID, Token: "b", ExpiresAt: now.Add(time.Minute)}))

	assert.ErrorIs(t, db.ConsumeResetToken(ctx, userID, "a", now), store.ErrInvalidOrExpired)
	require.NoError(t, db.ConsumeResetToken(ctx, userID, "b", now))
	assert.ErrorIs(t, db.ConsumeResetToken(ctx, userID, "b", now), store.ErrInvalidOrExpired)
}
