package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nourabuild/profile-service/internal/sdk/store"
)

const (
	databaseConnected     = "connected"
	databaseDisconnected  = "disconnected"
	databaseNotConfigured = "not_configured"
)

// HandleHealth always answers 200 and reports store connectivity separately.
func (a *App) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := databaseConnected
	if err := a.db.Ping(ctx); err != nil {
		database = databaseDisconnected
		if errors.Is(err, store.ErrNotConfigured) {
			database = databaseNotConfigured
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: a.now().UTC(),
		Database:  database,
	})
}

func (a *App) HandleLiveness(c *gin.Context) {
	host, _ := os.Hostname()
	if host == "" {
		host = "unavailable"
	}

	c.JSON(http.StatusOK, LivenessResponse{
		Status:     "up",
		Host:       host,
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	})
}
