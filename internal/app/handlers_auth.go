package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nourabuild/profile-service/internal/sdk/middleware"
	"github.com/nourabuild/profile-service/internal/sdk/models"
	"github.com/nourabuild/profile-service/internal/sdk/store"
)

func (a *App) HandleSignup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	if validationErrors := validateSignupInput(req); validationErrors != nil {
		writeError(c, ErrMissingFields, validationErrors)
		return
	}

	hashedPassword, err := a.hash.HashPassword(req.Password)
	if err != nil {
		a.writeHashError(c, "signup", err)
		return
	}

	user, err := a.db.CreateUser(c.Request.Context(), models.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		a.metrics.AuthEvents.WithLabelValues("signup", "failure").Inc()
		a.writeStoreError(c, "signup", err)
		return
	}

	token, err := a.jwt.Issue(user.ID)
	if err != nil {
		a.writeInternalError(c, "signup", "jwt", err)
		return
	}

	a.metrics.AuthEvents.WithLabelValues("signup", "success").Inc()
	c.JSON(http.StatusCreated, AuthResponse{
		Message: "User created successfully",
		User:    models.ToPublicUser(user),
		Token:   token,
	})
}

func (a *App) HandleSignin(c *gin.Context) {
	var req SigninRequest
	if !bindJSON(c, &req) {
		return
	}

	if validationErrors := validateSigninInput(req); validationErrors != nil {
		writeError(c, ErrMissingCredentials, validationErrors)
		return
	}

	user, err := a.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.hash.CheckDummyHash(req.Password)
			a.metrics.AuthEvents.WithLabelValues("signin", "failure").Inc()
			writeError(c, ErrInvalidCredentials, nil)
			return
		}
		a.writeStoreError(c, "signin", err)
		return
	}

	// Unknown email and wrong password share one response.
	if !a.hash.CheckPasswordHash(req.Password, user.PasswordHash) {
		a.metrics.AuthEvents.WithLabelValues("signin", "failure").Inc()
		writeError(c, ErrInvalidCredentials, nil)
		return
	}

	token, err := a.jwt.Issue(user.ID)
	if err != nil {
		a.writeInternalError(c, "signin", "jwt", err)
		return
	}

	a.metrics.AuthEvents.WithLabelValues("signin", "success").Inc()
	c.JSON(http.StatusOK, AuthResponse{
		Message: "Sign in successful",
		User:    models.ToPublicUser(user),
		Token:   token,
	})
}

// HandleValidateToken re-issues a token for the authenticated user.
func (a *App) HandleValidateToken(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		writeError(c, ErrUnauthorized, nil)
		return
	}

	user, err := a.db.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		a.writeStoreError(c, "validate_token", err)
		return
	}

	token, err := a.jwt.Issue(user.ID)
	if err != nil {
		a.writeInternalError(c, "validate_token", "jwt", err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Message: "Token is valid",
		User:    models.ToPublicUser(user),
		Token:   token,
	})
}
