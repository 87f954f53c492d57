package handler

import (
	"github.com/civicreport/civicreport-api/internal/middleware"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	cookies     *CookieJar
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, cookies *CookieJar) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		cookies:     cookies,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	profilePic := formFile(c, "profile_pic")

	user, err := h.authService.Register(c.UserContext(), req, profilePic)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.userService.Render(user, false))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if middleware.CurrentUser(c) != nil {
		return detail(c, fiber.StatusBadRequest, "User is already logged in. You need to logout first.")
	}

	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	resp, pair, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetAccess(c, pair.Access)
	h.cookies.SetRefresh(c, pair.Refresh)
	return c.JSON(resp)
}

// Refresh prefers the refresh cookie over the request body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := h.cookies.Refresh(c)
	if token == "" {
		var req models.RefreshRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badBody(c, err)
			}
		}
		token = req.Refresh
	}

	resp, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.SetAccess(c, resp.Access)
	if resp.Refresh != "" {
		h.cookies.SetRefresh(c, resp.Refresh)
	}
	return c.JSON(resp)
}

// Verify checks the token in the body, falling back to the access cookie.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req models.VerifyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}
	}

	token := req.Token
	if token == "" {
		token = h.cookies.Access(c)
	}
	if token == "" {
		return detail(c, fiber.StatusUnauthorized, "No access token provided.")
	}

	if err := h.authService.Verify(c.UserContext(), token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := h.cookies.Refresh(c)
	if token == "" {
		var req models.RefreshRequest
		if len(c.Body()) > 0 && c.BodyParser(&req) == nil {
			token = req.Refresh
		}
	}

	if err := h.authService.Logout(c.UserContext(), token); err != nil {
		return err
	}

	h.cookies.Clear(c)
	return c.JSON(models.Detail{Detail: "Successfully logged out."})
}
