package app

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes the request body into dst and answers 400 on failure. An
// empty body decodes as an empty object.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(c, ErrBodyTooLarge, nil)
		return false
	}

	writeError(c, ErrUnmarshal, nil)
	return false
}

// requireFields returns a details map naming every empty field, or nil.
func requireFields(fields ...field) map[string]string {
	validationErrors := make(map[string]string)
	for _, f := range fields {
		if f.value == "" {
			validationErrors[f.name] = "required"
		}
	}

	if len(validationErrors) == 0 {
		return nil
	}
	return validationErrors
}

type field struct {
	name  string
	value string
}

func validateSignupInput(req SignupRequest) map[string]string {
	return requireFields(
		field{"name", req.Name},
		field{"email", req.Email},
		field{"password", req.Password},
	)
}

func validateSigninInput(req SigninRequest) map[string]string {
	return requireFields(
		field{"email", req.Email},
		field{"password", req.Password},
	)
}

func validateResetInput(req ResetPasswordRequest) map[string]string {
	return requireFields(
		field{"userId", req.UserID},
		field{"resetToken", req.ResetToken},
		field{"newPassword", req.NewPassword},
	)
}

func validateContactInput(req ContactRequest) map[string]string {
	return requireFields(
		field{"name", req.Name},
		field{"email", req.Email},
		field{"phone", req.Phone},
		field{"message", req.Message},
	)
}

func validateFeedbackInput(req FeedbackRequest) map[string]string {
	validationErrors := make(map[string]string)
	if isBlank(req.Rating) {
		validationErrors["rating"] = "required"
	}
	if req.Feedback == "" {
		validationErrors["feedback"] = "required"
	}

	if len(validationErrors) == 0 {
		return nil
	}
	return validationErrors
}

// isBlank reports whether a decoded JSON value is missing, null, false, zero
// or the empty string.
func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case float64:
		return val == 0
	case string:
		return val == ""
	default:
		return false
	}
}
