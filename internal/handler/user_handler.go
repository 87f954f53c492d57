package handler

import (
	"github.com/civicreport/civicreport-api/internal/middleware"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(h.userService.Render(user, false))
}

// UpdateMe handles PUT and PATCH on /me, where email is editable.
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	return h.update(c, true, false)
}

// UpdateProfile handles /profile/update, where email is read-only and full_name is returned.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	return h.update(c, false, true)
}

func (h *UserHandler) update(c *fiber.Ctx, allowEmail, withFullName bool) error {
	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), middleware.CurrentUser(c), req, isPartial(c), allowEmail)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.userService.Render(user, withFullName))
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req models.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	if err := h.userService.ChangePassword(c.UserContext(), middleware.CurrentUser(c), req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.Detail{Detail: "Password updated successfully."})
}

func (h *UserHandler) UpdateFirstName(c *fiber.Ctx) error {
	var req models.UpdateFirstNameRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	user, err := h.userService.UpdateFirstName(c.UserContext(), middleware.CurrentUser(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"first_name": user.FirstName})
}

func (h *UserHandler) UpdateProfilePic(c *fiber.Ctx) error {
	err := h.userService.UpdateProfilePic(c.UserContext(), middleware.CurrentUser(c), formFile(c, "profile_pic"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.Detail{Detail: "Profile picture updated successfully."})
}
