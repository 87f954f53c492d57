package main

import (
	"context"
	"fmt"

	"github.com/civicreport/civicreport-api/internal/config"
	"github.com/civicreport/civicreport-api/internal/handler"
	"github.com/civicreport/civicreport-api/internal/metrics"
	"github.com/civicreport/civicreport-api/internal/middleware"
	"github.com/civicreport/civicreport-api/internal/repository"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/civicreport/civicreport-api/pkg/database"
	"github.com/civicreport/civicreport-api/pkg/denylist"
	"github.com/civicreport/civicreport-api/pkg/email"
	jwtPkg "github.com/civicreport/civicreport-api/pkg/jwt"
	"github.com/civicreport/civicreport-api/pkg/logger"
	"github.com/civicreport/civicreport-api/pkg/qrcode"
	"github.com/civicreport/civicreport-api/pkg/storage"
	"github.com/civicreport/civicreport-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Application is everything main needs to run and shut down the API.
type Application struct {
	Config     *config.Config
	App        *fiber.App
	Logger     *zap.Logger
	Dispatcher *service.Dispatcher
}

func NewApplication(cfg *config.Config, app *fiber.App, log *zap.Logger, d *service.Dispatcher) *Application {
	return &Application{Config: cfg, App: app, Logger: log, Dispatcher: d}
}

func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, func() { _ = log.Sync() }, nil
}

func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

func ProvideStorage(cfg *config.Config, log *zap.Logger) (storage.StorageService, error) {
	sc := cfg.Storage
	if sc.Backend == "s3" {
		return storage.NewS3Storage(context.Background(), storage.S3Config{
			Endpoint:        sc.S3Endpoint,
			Region:          sc.S3Region,
			Bucket:          sc.S3Bucket,
			AccessKeyID:     sc.S3AccessKeyID,
			SecretAccessKey: sc.S3SecretAccessKey,
			PublicURL:       sc.S3PublicURL,
			UsePathStyle:    sc.S3UsePathStyle,
		}, log.Named("storage"))
	}
	return storage.NewLocalStorage(sc.MediaRoot, sc.MediaURL)
}

// ProvideDenylist uses Redis when REDIS_URL is set and an in-process map otherwise.
func ProvideDenylist(cfg *config.Config, log *zap.Logger) (denylist.Denylist, func(), error) {
	if cfg.Redis.URL == "" {
		log.Info("REDIS_URL not set, revoked tokens are kept in memory")
		return denylist.NewMemory(), func() {}, nil
	}

	r, err := denylist.NewRedis(cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := r.Ping(context.Background()); err != nil {
		_ = r.Close()
		return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return r, func() { _ = r.Close() }, nil
}

func ProvideEmailService(cfg *config.Config, log *zap.Logger) (*email.EmailService, error) {
	return email.NewEmailService(email.Config{
		APIKey:      cfg.Email.ResendAPIKey,
		From:        cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		FrontendURL: cfg.FrontendURL,
	}, log)
}

func ProvideTokenManager(cfg *config.Config) *jwtPkg.Manager {
	return jwtPkg.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenLifetime, cfg.JWT.RefreshTokenLifetime)
}

func ProvideQRService(cfg *config.Config) *qrcode.QRService {
	return qrcode.NewQRService(cfg.FrontendURL)
}

func ProvideAuthService(
	cfg *config.Config,
	users *repository.UserRepository,
	tokens *jwtPkg.Manager,
	dl denylist.Denylist,
	store storage.StorageService,
	notify *service.Dispatcher,
	validator *utils.Validator,
	log *zap.Logger,
) *service.AuthService {
	return service.NewAuthService(users, tokens, dl, store, notify, validator, cfg.JWT.RotateRefreshTokens, log)
}

// ProvideCookieJar keeps cookie lifetimes in step with the tokens they carry.
func ProvideCookieJar(cfg *config.Config, tokens *jwtPkg.Manager) *handler.CookieJar {
	return handler.NewCookieJar(cfg.Cookie, tokens.AccessTTL(), tokens.RefreshTTL())
}

func ProvideAuthenticator(cfg *config.Config, auth *service.AuthService, log *zap.Logger) *middleware.Authenticator {
	return middleware.NewAuthenticator(auth, cfg.Cookie.AccessName, log)
}

func ProvideMetrics() *metrics.Metrics {
	return metrics.New()
}
