// Package models defines data models for the profile service.
package models

import "time"

// User represents a user in the system
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    *string   `json:"firstName"`
	LastName     *string   `json:"lastName"`
	Phone        *string   `json:"phone"`
	Address      *string   `json:"address"`
	ProfilePic   *string   `json:"profilePic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
}

// UserUpdate carries a partial profile update. A nil field is left untouched.
// For the optional profile fields a non-nil pointer to a nil value clears the
// stored value.
type UserUpdate struct {
	Name      *string
	Email     *string
	FirstName **string
	LastName  **string
	Phone     **string
	Address   **string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.FirstName == nil &&
		u.LastName == nil && u.Phone == nil && u.Address == nil
}

// Apply copies the set fields of the update onto user.
func (u UserUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.FirstName != nil {
		user.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		user.LastName = *u.LastName
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
	if u.Address != nil {
		user.Address = *u.Address
	}
}

// PasswordResetToken authorizes one password change for one user.
type PasswordResetToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// PublicUser is the representation of a user returned to clients.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	FirstName  *string   `json:"firstName"`
	LastName   *string   `json:"lastName"`
	Phone      *string   `json:"phone"`
	Address    *string   `json:"address"`
	ProfilePic *string   `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToPublicUser projects a stored user onto its public representation. It is
// the only way a User is rendered in a response.
func ToPublicUser(u User) PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		Address:    u.Address,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}
