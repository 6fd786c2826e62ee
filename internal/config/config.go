// Package config loads service configuration from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory.
package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. It is only fit for local
// development; main logs a warning when it is in effect.
const DefaultJWTSecret = "dev-secret-key-change-in-production"

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

type JWTConfig struct {
	Secret   string        `mapstructure:"jwt_secret"`
	Issuer   string        `mapstructure:"jwt_issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type StoreConfig struct {
	Backend         string        `mapstructure:"store_backend"`
	DatabaseURL     string        `mapstructure:"database_url"`
	SupabaseURL     string        `mapstructure:"supabase_url"`
	SupabaseAnonKey string        `mapstructure:"supabase_anon_key"`
	Timeout         time.Duration `mapstructure:"store_timeout"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"minio_endpoint"`
	AccessKey string `mapstructure:"minio_access_key"`
	SecretKey string `mapstructure:"minio_secret_key"`
	Bucket    string `mapstructure:"minio_bucket"`
	UseSSL    bool   `mapstructure:"minio_use_ssl"`
}

type MailConfig struct {
	APIURL   string `mapstructure:"mailtrap_api_url"`
	APIKey   string `mapstructure:"mailtrap_api_key"`
	From     string `mapstructure:"mail_from"`
	ResetURL string `mapstructure:"reset_url"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"sentry_environment"`
}

type Config struct {
	Port          int           `mapstructure:"port"`
	Env           string        `mapstructure:"app_env"`
	LogLevel      string        `mapstructure:"log_level"`
	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`

	JWT    JWTConfig    `mapstructure:",squash"`
	Store  StoreConfig  `mapstructure:",squash"`
	Minio  MinioConfig  `mapstructure:",squash"`
	Mail   MailConfig   `mapstructure:",squash"`
	Sentry SentryConfig `mapstructure:",squash"`
}

// Development reports whether the service runs in development mode, which
// exposes internal error details in responses.
func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "dev"
}

// UsingDefaultSecret reports whether tokens are signed with the built-in secret.
func (c *Config) UsingDefaultSecret() bool {
	return c.JWT.Secret == DefaultJWTSecret
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	switch cfg.Store.Backend {
	case BackendMemory, BackendPostgres, BackendSupabase:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	if cfg.JWT.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive")
	}
	if cfg.ResetTokenTTL <= 0 {
		return nil, fmt.Errorf("RESET_TOKEN_TTL must be positive")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("app_env", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("reset_token_ttl", "10m")

	v.SetDefault("jwt_secret", DefaultJWTSecret)
	v.SetDefault("jwt_issuer", "profile-service")
	v.SetDefault("token_ttl", "1h")

	v.SetDefault("store_backend", BackendMemory)
	v.SetDefault("database_url", "")
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_anon_key", "")
	v.SetDefault("store_timeout", "10s")

	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_bucket", "profile-pictures")
	v.SetDefault("minio_use_ssl", false)

	v.SetDefault("mailtrap_api_url", "")
	v.SetDefault("mailtrap_api_key", "")
	v.SetDefault("mail_from", "noreply@example.com")
	v.SetDefault("reset_url", "http://localhost:4321/reset-password")

	v.SetDefault("sentry_dsn", "")
	v.SetDefault("sentry_environment", "development")
}
