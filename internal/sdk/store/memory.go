package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nourabuild/profile-service/internal/sdk/models"
)

// Memory is a non-persistent store backed by process memory.
type Memory struct {
	mu     sync.RWMutex
	users  map[string]models.User
	emails map[string]string
	resets map[string]models.PasswordResetToken
}

func NewMemory() *Memory {
	return &Memory{
		users:  map[string]models.User{},
		emails: map[string]string{},
		resets: map[string]models.PasswordResetToken{},
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// CreateUser checks for a duplicate email and inserts under the same lock.
func (m *Memory) CreateUser(_ context.Context, nu models.NewUser) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.emails[nu.Email]; taken {
		return models.User{}, ErrDuplicateEmail
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	m.emails[user.Email] = user.ID

	return user, nil
}

func (m *Memory) GetUserByID(_ context.Context, userID string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) UpdateUser(_ context.Context, userID string, upd models.UserUpdate) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}

	if upd.Email != nil && *upd.Email != user.Email {
		if owner, taken := m.emails[*upd.Email]; taken && owner != userID {
			return models.User{}, ErrDuplicateEmail
		}
		delete(m.emails, user.Email)
		m.emails[*upd.Email] = userID
	}

	upd.Apply(&user)
	user.UpdatedAt = time.Now().UTC()
	m.users[userID] = user

	return user, nil
}

func (m *Memory) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	m.users[userID] = user

	return nil
}

func (m *Memory) SetProfilePic(_ context.Context, userID string, pic *string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	user.ProfilePic = pic
	user.UpdatedAt = time.Now().UTC()
	m.users[userID] = user

	return user, nil
}

func (m *Memory) CreateResetToken(_ context.Context, token models.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resets[token.UserID] = token
	return nil
}

func (m *Memory) ConsumeResetToken(_ context.Context, userID, token string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.resets[userID]
	if !ok {
		return ErrInvalidOrExpired
	}

	remove, err := CheckResetToken(stored, token, now)
	if remove {
		delete(m.resets, userID)
	}
	return err
}
