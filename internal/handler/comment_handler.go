package handler

import (
	"github.com/civicreport/civicreport-api/internal/middleware"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

func (h *CommentHandler) GetIssueComments(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return detail(c, fiber.StatusNotFound, msgIssueNotFound)
	}

	comments, err := h.commentService.List(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	var req models.CreateCommentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}
	}

	if _, err := h.commentService.Create(c.UserContext(), middleware.CurrentUser(c), req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.Message{Message: "Comment added successfully"})
}

func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return detail(c, fiber.StatusNotFound, msgCommentNotFound)
	}

	if err := h.commentService.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
