// Package hash hashes and verifies user passwords with bcrypt.
package hash

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for every stored password.
const Cost = 10

var (
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrPasswordTooLong      = bcrypt.ErrPasswordTooLong
)

type HashService struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewHashService() *HashService {
	return &HashService{
		cost: Cost,
	}
}

func (hs *HashService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hs.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFailedToHashPassword, err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches hash. A malformed hash
// never matches.
func (hs *HashService) CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckDummyHash compares password against a fixed hash of the same cost and
// always reports false. Call it when there is no stored hash to check, so a
// missing account takes as long to reject as a wrong password.
func (hs *HashService) CheckDummyHash(password string) bool {
	hs.dummyOnce.Do(func() {
		hs.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no account"), hs.cost)
	})
	_ = bcrypt.CompareHashAndPassword(hs.dummyHash, []byte(password))
	return false
}
