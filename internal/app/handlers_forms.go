package app

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nourabuild/profile-service/internal/sdk/middleware"
)

// Submissions are validated, logged and counted. Nothing is stored.

func (a *App) HandleSubmitContact(c *gin.Context) {
	var req ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	if validationErrors := validateContactInput(req); validationErrors != nil {
		writeError(c, ErrMissingFields, validationErrors)
		return
	}

	a.logger.Info("contact form submitted",
		slog.String("user_id", c.GetString(middleware.UserIDKey)),
		slog.String("email", req.Email),
		slog.Int("message_length", len(req.Message)),
	)
	a.metrics.Submissions.WithLabelValues("contact").Inc()

	c.JSON(http.StatusCreated, SubmissionResponse{
		Message:     "Form submitted successfully",
		SubmittedAt: a.now().UTC(),
	})
}

func (a *App) HandleSubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	if validationErrors := validateFeedbackInput(req); validationErrors != nil {
		writeError(c, ErrMissingRating, validationErrors)
		return
	}

	a.logger.Info("feedback submitted",
		slog.String("user_id", c.GetString(middleware.UserIDKey)),
		slog.Any("rating", req.Rating),
		slog.Int("feedback_length", len(req.Feedback)),
	)
	a.metrics.Submissions.WithLabelValues("feedback").Inc()

	c.JSON(http.StatusCreated, SubmissionResponse{
		Message:     "Feedback submitted successfully",
		SubmittedAt: a.now().UTC(),
	})
}
