package app

import (
	"encoding/json"
	"time"

	"github.com/nourabuild/profile-service/internal/sdk/models"
)

// ---------------------------------------------
// Requests
// ---------------------------------------------

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	UserID      string `json:"userId"`
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

// UpdateProfileRequest distinguishes absent fields from explicit nulls for
// the optional profile fields.
type UpdateProfileRequest struct {
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	FirstName NullableString `json:"firstName"`
	LastName  NullableString `json:"lastName"`
	Phone     NullableString `json:"phone"`
	Address   NullableString `json:"address"`
}

type ProfilePictureRequest struct {
	ProfilePic string `json:"profilePic"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// FeedbackRequest accepts any JSON value as rating.
type FeedbackRequest struct {
	Rating   any    `json:"rating"`
	Feedback string `json:"feedback"`
}

// NullableString records whether a JSON field was present at all.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// update returns the value to store, or nil when the field was absent.
func (n NullableString) update() **string {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

// ---------------------------------------------
// Responses
// ---------------------------------------------

type AuthResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
	Token   string            `json:"token"`
}

type ProfileResponse struct {
	Message string            `json:"message,omitempty"`
	User    models.PublicUser `json:"user"`
}

type ForgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

type ProfilePictureResponse struct {
	Message    string `json:"message"`
	ProfilePic string `json:"profilePic"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SubmissionResponse struct {
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

type LivenessResponse struct {
	Status     string `json:"status"`
	Host       string `json:"host"`
	GOMAXPROCS int    `json:"gomaxprocs"`
}
