package router

import (
	"time"

	"github.com/civicreport/civicreport-api/internal/config"
	"github.com/civicreport/civicreport-api/internal/handler"
	"github.com/civicreport/civicreport-api/internal/metrics"
	"github.com/civicreport/civicreport-api/internal/middleware"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

const maxBodySize = 64 << 20 // ten issue images plus form fields

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Issue   *handler.IssueHandler
	Comment *handler.CommentHandler
	Like    *handler.LikeHandler
	Health  *handler.HealthHandler
}

// New builds the fiber app with global middleware and every route mounted.
func New(cfg *config.Config, h *Handlers, auth *middleware.Authenticator, m *metrics.Metrics, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "civicreport-api",
		Immutable:    true,
		ErrorHandler: middleware.ErrorHandler(logger),
		BodyLimit:    maxBodySize,
		ReadTimeout:  30 * time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger.Named("http")))
	app.Use(middleware.Metrics(m))
	app.Use(middleware.Envelope())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.Detail{
					Detail: "Request was throttled.",
				})
			},
		}))
	}

	// Operational
	app.Get("/health", h.Health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	if cfg.Storage.Backend == "local" {
		app.Static("/media", cfg.Storage.MediaRoot)
	}

	Register(app, h, auth)
	return app
}

// Register mounts the API routes. Trailing slashes are optional.
func Register(app fiber.Router, h *Handlers, auth *middleware.Authenticator) {
	optional := auth.Optional()
	required := auth.Required()
	staff := auth.Staff()

	// Auth
	authGroup := app.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", optional, h.Auth.Login)
	authGroup.Post("/token/refresh", h.Auth.Refresh)
	authGroup.Post("/token/verify", h.Auth.Verify)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Get("/me", required, h.User.GetMyProfile)
	authGroup.Put("/me", required, h.User.UpdateMe)
	authGroup.Patch("/me", required, h.User.UpdateMe)
	authGroup.Post("/me/update/profile_pic", required, h.User.UpdateProfilePic)
	authGroup.Patch("/me/update/profile_pic", required, h.User.UpdateProfilePic)

	// Profile
	profile := app.Group("/profile")
	profile.Get("/me", required, h.User.GetMyProfile)
	profile.Put("/me", required, h.User.UpdateMe)
	profile.Patch("/me", required, h.User.UpdateMe)
	profile.Put("/update", required, h.User.UpdateProfile)
	profile.Patch("/update", required, h.User.UpdateProfile)
	profile.Patch("/update/password", required, h.User.ChangePassword)
	profile.Patch("/update/first_name", required, h.User.UpdateFirstName)
	profile.Post("/update/profile_pic", required, h.User.UpdateProfilePic)
	profile.Patch("/update/profile_pic", required, h.User.UpdateProfilePic)
	profile.Post("/logout", h.Auth.Logout)

	// Issues
	issues := app.Group("/issues")
	issues.Get("/", h.Issue.ListIssues)
	issues.Post("/create", required, h.Issue.CreateIssue)
	issues.Get("/mine", required, h.Issue.GetMyIssues)
	issues.Get("/of/:id", h.Issue.GetIssue)
	issues.Get("/of/:id/qrcode", h.Issue.GetIssueQRCode)
	issues.Put("/update/:id", required, h.Issue.UpdateIssue)
	issues.Patch("/update/:id", required, h.Issue.UpdateIssue)
	issues.Delete("/delete/:id", required, h.Issue.DeleteIssue)
	issues.Delete("/admin/delete/:id", required, staff, h.Issue.AdminDeleteIssue)

	// Comments
	issues.Get("/comments/of/:id", h.Comment.GetIssueComments)
	issues.Post("/comments/create", required, h.Comment.CreateComment)
	issues.Delete("/comments/delete/:id", required, h.Comment.DeleteComment)

	// Likes
	issues.Post("/likes/create", required, h.Like.CreateLike)
	issues.Post("/likes/toggle", required, h.Like.ToggleLike)
	issues.Get("/likes/of/:id", h.Like.GetIssueLikes)
}
