package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nourabuild/profile-service/internal/sdk/models"
	"github.com/nourabuild/profile-service/internal/sdk/store"
	"github.com/nourabuild/profile-service/internal/services/sentry"
)

const resetTokenLength = 32 // 32 bytes = 64 hex characters

const msgResetRequested = "If your email is registered, you will receive a password reset link"

// HandleForgotPassword answers with the same message whether or not the email
// is known. For a known email the reset token is included in the body.
func (a *App) HandleForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Email == "" {
		writeError(c, ErrMissingEmail, map[string]string{"email": "required"})
		return
	}

	ctx := c.Request.Context()

	user, err := a.db.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, ForgotPasswordResponse{Message: msgResetRequested})
			return
		}
		a.writeStoreError(c, "forgot_password", err)
		return
	}

	token, err := generateSecureToken(resetTokenLength)
	if err != nil {
		a.writeInternalError(c, "forgot_password", "token_generation", err)
		return
	}

	err = a.db.CreateResetToken(ctx, models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: a.now().Add(a.resetTTL),
	})
	if err != nil {
		a.writeStoreError(c, "forgot_password", err)
		return
	}

	if a.email != nil {
		if err := a.email.SendPasswordReset(ctx, user.Email, user.Name, user.ID, token, a.resetTTL); err != nil {
			a.toSentry(c, "forgot_password", "email", sentry.LevelWarning, err)
			a.logger.Warn("sending reset email failed",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
	}

	c.JSON(http.StatusOK, ForgotPasswordResponse{
		Message:    msgResetRequested,
		ResetToken: token,
		UserID:     user.ID,
	})
}

// HandleResetPassword redeems a reset token. The token is consumed before the
// password changes, so it cannot be replayed.
func (a *App) HandleResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if validationErrors := validateResetInput(req); validationErrors != nil {
		writeError(c, ErrMissingFields, validationErrors)
		return
	}

	hashedPassword, err := a.hash.HashPassword(req.NewPassword)
	if err != nil {
		a.writeHashError(c, "reset_password", err)
		return
	}

	ctx := c.Request.Context()

	if err := a.db.ConsumeResetToken(ctx, req.UserID, req.ResetToken, a.now()); err != nil {
		a.writeStoreError(c, "reset_password", err)
		return
	}

	if err := a.db.UpdatePassword(ctx, req.UserID, hashedPassword); err != nil {
		a.writeStoreError(c, "reset_password", err)
		return
	}

	a.metrics.AuthEvents.WithLabelValues("password_reset", "success").Inc()
	c.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset successfully"})
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
