package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	Driver       string        `env:"DB_DRIVER,default=postgres"`
	URL          string        `env:"DATABASE_URL"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS,default=20"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
}

type JWTConfig struct {
	Secret               string        `env:"JWT_SECRET"`
	Issuer               string        `env:"JWT_ISSUER,default=civicreport"`
	AccessTokenLifetime  time.Duration `env:"ACCESS_TOKEN_LIFETIME,default=60m"`
	RefreshTokenLifetime time.Duration `env:"REFRESH_TOKEN_LIFETIME,default=168h"`
	RotateRefreshTokens  bool          `env:"ROTATE_REFRESH_TOKENS,default=true"`
}

// CookieConfig controls the auth cookies set on login and refresh.
type CookieConfig struct {
	AccessName  string `env:"AUTH_COOKIE,default=access_token"`
	RefreshName string `env:"AUTH_COOKIE_REFRESH,default=refresh_token"`
	Path        string `env:"AUTH_COOKIE_PATH,default=/"`
	Secure      bool   `env:"AUTH_COOKIE_SECURE,default=false"`
	HTTPOnly    bool   `env:"AUTH_COOKIE_HTTP_ONLY,default=true"`
	SameSite    string `env:"AUTH_COOKIE_SAMESITE,default=Lax"`
}

// StorageConfig selects where uploaded images live. "s3" works with any
// S3-compatible endpoint (AWS, R2, MinIO); "local" writes under MediaRoot.
type StorageConfig struct {
	Backend   string `env:"STORAGE_BACKEND,default=local"`
	MediaRoot string `env:"MEDIA_ROOT,default=media"`
	MediaURL  string `env:"MEDIA_URL,default=http://localhost:8080/media"`

	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3Region          string `env:"S3_REGION,default=auto"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL       string `env:"S3_PUBLIC_URL"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE,default=false"`
}

type EmailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	FromAddress  string `env:"EMAIL_FROM_ADDRESS,default=no-reply@civicreport.local"`
	FromName     string `env:"EMAIL_FROM_NAME,default=CivicReport"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

type Config struct {
	Env          string `env:"APP_ENV,default=development"`
	Port         string `env:"PORT,default=8080"`
	FrontendURL  string `env:"FRONTEND_URL,default=http://localhost:5173"`
	CORSOrigins  string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RateLimitMax int    `env:"RATE_LIMIT_MAX,default=120"`

	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Storage  StorageConfig
	Email    EmailConfig
	Redis    RedisConfig
}

// LoadConfig reads an optional .env file and decodes the environment.
func LoadConfig() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is not set")
		}
		c.JWT.Secret = "insecure-development-secret"
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is not set")
		}
	case "sqlite":
		if c.Database.URL == "" {
			c.Database.URL = "civicreport.db"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET is not set")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}

	return nil
}

// AllowedOrigins returns the CORS origins in the form fiber's cors middleware expects.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}
