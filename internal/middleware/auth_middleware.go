package middleware

import (
	"errors"
	"strings"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	userKey   = "user"
	userIDKey = "userID"
)

// Authenticator resolves the caller from a bearer header or the access cookie.
type Authenticator struct {
	auth       *service.AuthService
	cookieName string
	logger     *zap.Logger
}

func NewAuthenticator(auth *service.AuthService, accessCookie string, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		auth:       auth,
		cookieName: accessCookie,
		logger:     logger.Named("auth"),
	}
}

func (a *Authenticator) token(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Cookies(a.cookieName)
}

// Optional attaches the user when a valid token is present and never rejects the request.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := a.token(c); token != "" {
			if user, err := a.auth.Authenticate(c.UserContext(), token); err == nil {
				setUser(c, user)
			}
		}
		return c.Next()
	}
}

// Required rejects requests without a valid token for an active user.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := a.token(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.Detail{
				Detail: "Authentication credentials were not provided.",
			})
		}

		user, err := a.auth.Authenticate(c.UserContext(), token)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrInvalidToken):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
		case errors.Is(err, service.ErrUserNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "User not found",
				"code":   "user_not_found",
			})
		case errors.Is(err, service.ErrInactiveUser):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "User is inactive",
				"code":   "user_inactive",
			})
		default:
			a.logger.Error("authentication failed", zap.Error(err))
			return err
		}

		setUser(c, user)
		return c.Next()
	}
}

// Staff runs after Required and lets only staff users through.
func (a *Authenticator) Staff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsStaff {
			return c.Status(fiber.StatusForbidden).JSON(models.Detail{
				Detail: "You do not have permission to perform this action.",
			})
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userKey, user)
	c.Locals(userIDKey, user.ID)
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
