package hash

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hs := NewHashService()

	hashed, err := hs.HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hashed == "pw1" {
		t.Fatal("expected hash to differ from the password")
	}

	cost, err := bcrypt.Cost([]byte(hashed))
	if err != nil {
		t.Fatalf("bcrypt.Cost returned error: %v", err)
	}
	if cost != Cost {
		t.Fatalf("expected cost %d, got %d", Cost, cost)
	}

	again, err := hs.HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if again == hashed {
		t.Fatal("expected salted hashes to differ")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := NewHashService().HashPassword(strings.Repeat("a", 73))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if !errors.Is(err, ErrFailedToHashPassword) {
		t.Fatalf("expected ErrFailedToHashPassword, got %v", err)
	}
}

func TestCheckPasswordHash(t *testing.T) {
	hs := NewHashService()
	hashed, err := hs.HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !hs.CheckPasswordHash("pw1", hashed) {
		t.Fatal("expected matching password to verify")
	}
	if hs.CheckPasswordHash("wrong", hashed) {
		t.Fatal("expected wrong password to fail")
	}
	if hs.CheckPasswordHash("pw1", "not-a-hash") {
		t.Fatal("expected malformed hash to fail")
	}
}

func TestCheckDummyHash(t *testing.T) {
	hs := NewHashService()

	for _, pw := range []string{"", "pw1", "no account"} {
		if hs.CheckDummyHash(pw) {
			t.Fatalf("CheckDummyHash(%q) = true, want false", pw)
		}
	}

	cost, err := bcrypt.Cost(hs.dummyHash)
	if err != nil {
		t.Fatalf("bcrypt.Cost returned error: %v", err)
	}
	if cost != Cost {
		t.Fatalf("expected dummy hash cost %d, got %d", Cost, cost)
	}
}
