package handler

import (
	"github.com/civicreport/civicreport-api/internal/middleware"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/gofiber/fiber/v2"
)

type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{
		likeService: likeService,
	}
}

func (h *LikeHandler) parseIssueID(c *fiber.Ctx) (uint, error) {
	var req models.IssueIDRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return 0, err
		}
	}
	return uint(req.IssueID), nil
}

func (h *LikeHandler) CreateLike(c *fiber.Ctx) error {
	issueID, err := h.parseIssueID(c)
	if err != nil {
		return badBody(c, err)
	}

	if err := h.likeService.Like(c.UserContext(), middleware.CurrentUser(c), issueID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.Message{Message: "Liked"})
}

func (h *LikeHandler) ToggleLike(c *fiber.Ctx) error {
	issueID, err := h.parseIssueID(c)
	if err != nil {
		return badBody(c, err)
	}

	liked, err := h.likeService.Toggle(c.UserContext(), middleware.CurrentUser(c), issueID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.ToggleLikeResponse{Liked: liked})
}

func (h *LikeHandler) GetIssueLikes(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return detail(c, fiber.StatusNotFound, msgIssueNotFound)
	}

	likes, err := h.likeService.List(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(likes)
}
