package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nourabuild/profile-service/internal/app"
	"github.com/nourabuild/profile-service/internal/config"
	"github.com/nourabuild/profile-service/internal/sdk/jwt"
	"github.com/nourabuild/profile-service/internal/sdk/logger"
	"github.com/nourabuild/profile-service/internal/sdk/postgrest"
	"github.com/nourabuild/profile-service/internal/sdk/sqldb"
	"github.com/nourabuild/profile-service/internal/sdk/store"
	"github.com/nourabuild/profile-service/internal/services/hash"
	"github.com/nourabuild/profile-service/internal/services/mailtrap"
	"github.com/nourabuild/profile-service/internal/services/minio"
	"github.com/nourabuild/profile-service/internal/services/sentry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "profile-service"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logger.New(os.Stdout, cfg.LogLevel, serviceName, cfg.Env)
	logger.Info("GOMAXPROCS", "cpu", runtime.GOMAXPROCS(0))

	if cfg.UsingDefaultSecret() {
		logger.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	if cfg.Development() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Initialize Store
	db, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. Initialize Services
	hashService := hash.NewHashService()
	jwtService := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
	sentryService := sentry.NewSentryService(cfg.Sentry.DSN, cfg.Sentry.Environment, "", logger)
	defer sentryService.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []app.Option{
		app.WithRegistry(registry),
		app.WithDevelopment(cfg.Development()),
		app.WithResetTokenTTL(cfg.ResetTokenTTL),
	}

	if cfg.Minio.Endpoint != "" {
		avatars, err := openAvatars(cfg.Minio)
		if err != nil {
			logger.Warn("object storage unavailable, keeping profile pictures inline", "error", err)
		} else {
			logger.Info("object storage enabled", "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.Bucket)
			opts = append(opts, app.WithAvatars(avatars))
		}
	}

	if cfg.Mail.APIURL != "" && cfg.Mail.APIKey != "" {
		opts = append(opts, app.WithMailer(mailtrap.NewMailtrapService(cfg.Mail.APIURL, cfg.Mail.APIKey, cfg.Mail.From, cfg.Mail.ResetURL)))
	} else {
		logger.Info("mail delivery disabled, reset tokens are only returned in responses")
	}

	// 3. Initialize App
	app := app.NewApp(db, hashService, jwtService, sentryService, logger, opts...)

	// 4. Configure Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 5. Graceful Shutdown Logic
	done := make(chan bool, 1)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down gracefully, press Ctrl+C again to force")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
		done <- true
	}()

	// 6. Start Server
	logger.Info("Starting server", "port", srv.Addr, "store", cfg.Store.Backend)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	logger.Info("Graceful shutdown complete")
	return nil
}

// openStore selects the credential store. A backend missing its connection
// settings starts disabled and every store-backed request answers 500.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Service, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		if cfg.Store.DatabaseURL == "" {
			logger.Warn("DATABASE_URL not set, store disabled")
			return store.Disabled{}, nil
		}

		ctx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
		defer cancel()

		db, err := sqldb.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}
		return db, nil

	case config.BackendSupabase:
		if cfg.Store.SupabaseURL == "" || cfg.Store.SupabaseAnonKey == "" {
			logger.Warn("SUPABASE_URL or SUPABASE_ANON_KEY not set, store disabled")
			return store.Disabled{}, nil
		}
		return postgrest.New(cfg.Store.SupabaseURL, cfg.Store.SupabaseAnonKey, cfg.Store.Timeout), nil

	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), nil
	}
}

func openAvatars(cfg config.MinioConfig) (*minio.MinioService, error) {
	svc, err := minio.NewMinioService(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := svc.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
