// Package app provides HTTP handlers for the profile service.
package app

import (
	"github.com/gin-gonic/gin"
	"github.com/nourabuild/profile-service/internal/sdk/metrics"
	"github.com/nourabuild/profile-service/internal/sdk/middleware"
)

// maxBodyBytes bounds request bodies; profile pictures arrive as data URIs.
const maxBodyBytes = 10 << 20

// ----------------------------------------------------------------------------
// Route Registration
// ----------------------------------------------------------------------------

func (a *App) RegisterRoutes() *gin.Engine {
	router := gin.New()

	// Global middleware chain
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger, a.metrics))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.BodyLimit(maxBodyBytes))

	router.GET("/metrics", gin.WrapH(metrics.Handler(a.registry)))

	api := router.Group("/api")
	{
		// Health check routes (public)
		health := api.Group("/health")
		{
			health.GET("", a.HandleHealth)
			health.GET("/liveness", a.HandleLiveness)
		}

		// Auth routes (public except validate-token)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", a.HandleSignup)
			auth.POST("/signin", a.HandleSignin)
			auth.POST("/forgot-password", a.HandleForgotPassword)
			auth.POST("/reset-password", a.HandleResetPassword)
			auth.POST("/validate-token", middleware.Authenticate(a.jwt), a.HandleValidateToken)
		}

		// User routes (protected - requires authentication)
		user := api.Group("/user")
		user.Use(middleware.Authenticate(a.jwt))
		{
			user.GET("/profile", a.HandleGetProfile)
			user.PUT("/profile", a.HandleUpdateProfile)
			user.POST("/profile-picture", a.HandleUploadProfilePicture)
			user.DELETE("/profile-picture", a.HandleDeleteProfilePicture)
		}

		// Form routes (protected - requires authentication)
		submit := api.Group("/submit")
		submit.Use(middleware.Authenticate(a.jwt))
		{
			submit.POST("/contact", a.HandleSubmitContact)
			submit.POST("/feedback", a.HandleSubmitFeedback)
		}
	}

	return router
}
