package handler

import (
	"errors"
	"mime/multipart"
	"strconv"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/gofiber/fiber/v2"
)

const (
	msgIssueNotFound   = "No Issue matches the given query."
	msgCommentNotFound = "No IssueComment matches the given query."
	msgForbidden       = "You do not have permission to perform this action."
)

func detail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.Detail{Detail: message})
}

// respondError maps service errors to responses. Unknown errors go to the app error handler.
func respondError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	var ferr *service.FieldError

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(verr.Fields)
	case errors.As(err, &ferr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{ferr.Field: ferr.Message})
	case errors.Is(err, service.ErrIssueNotFound):
		return detail(c, fiber.StatusNotFound, msgIssueNotFound)
	case errors.Is(err, service.ErrCommentNotFound):
		return detail(c, fiber.StatusNotFound, msgCommentNotFound)
	case errors.Is(err, service.ErrUserNotFound):
		return detail(c, fiber.StatusNotFound, "User not found.")
	case errors.Is(err, service.ErrPermissionDenied):
		return detail(c, fiber.StatusForbidden, msgForbidden)
	case errors.Is(err, service.ErrAlreadyLiked):
		return detail(c, fiber.StatusBadRequest, "Already liked")
	case errors.Is(err, service.ErrIssueIDRequired):
		return detail(c, fiber.StatusBadRequest, "issue_id required")
	case errors.Is(err, service.ErrCommentIncomplete):
		return detail(c, fiber.StatusBadRequest, "issue_id and text are required")
	case errors.Is(err, service.ErrRefreshTokenAbsent):
		return detail(c, fiber.StatusBadRequest, "Refresh token not found.")
	case errors.Is(err, service.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
	case errors.Is(err, service.ErrInactiveUser):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"detail": "User is inactive",
			"code":   "user_inactive",
		})
	}
	return err
}

func badBody(c *fiber.Ctx, err error) error {
	return detail(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
}

// paramID reads a positive integer route parameter.
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func isPartial(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodPatch
}

func isMultipart(c *fiber.Ctx) bool {
	return len(c.Request().Header.MultipartFormBoundary()) > 0
}

// formFile returns the uploaded file for field, or nil when none was sent.
func formFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

// formFiles returns every file uploaded under field.
func formFiles(c *fiber.Ctx, field string) []*multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	return form.File[field]
}
