package handler

import (
	"strconv"

	"github.com/civicreport/civicreport-api/internal/middleware"
	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/gofiber/fiber/v2"
)

type IssueHandler struct {
	issueService *service.IssueService
}

func NewIssueHandler(issueService *service.IssueService) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
	}
}

func (h *IssueHandler) CreateIssue(c *fiber.Ctx) error {
	var req models.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	issue, err := h.issueService.Create(c.UserContext(), middleware.CurrentUser(c), req, formFiles(c, "uploaded_images"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(issue)
}

// ListIssues is the public feed. Query: category, is_resolved, search, page, page_size.
func (h *IssueHandler) ListIssues(c *fiber.Ctx) error {
	filter := models.IssueFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", service.DefaultPageSize),
	}

	if raw := c.Query("is_resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"is_resolved": []string{"Must be a valid boolean."},
			})
		}
		filter.IsResolved = &resolved
	}

	page, err := h.issueService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *IssueHandler) GetMyIssues(c *fiber.Ctx) error {
	issues, err := h.issueService.ListMine(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(issues)
}

func (h *IssueHandler) GetIssue(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return detail(c, fiber.StatusNotFound, msgIssueNotFound)
	}

	issue, err := h.issueService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(issue)
}

// GetIssueQRCode returns a PNG; ?size= sets the edge length in pixels.
func (h *IssueHandler) GetIssueQRCode(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return detail(c, fiber.StatusNotFound, msgIssueNotFound)
	}

	png, err := h.issueService.QRCode(c.UserContext(), id, c.QueryInt("size", 0))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, "inline; filename=issue-"+strconv.FormatUint(uint64(id), 10)+".png")
	return c.Send(png)
}

func (h *IssueHandler) UpdateIssue(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return detail(c, fiber.StatusNotFound, msgIssueNotFound)
	}

	var req models.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	issue, err := h.issueService.Update(c.UserContext(), middleware.CurrentUser(c), id, req, isPartial(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(issue)
}

func (h *IssueHandler) DeleteIssue(c *fiber.Ctx) error {
	return h.delete(c, false)
}

func (h *IssueHandler) AdminDeleteIssue(c *fiber.Ctx) error {
	return h.delete(c, true)
}

func (h *IssueHandler) delete(c *fiber.Ctx, staffOnly bool) error {
	id, ok := paramID(c, "id")
	if !ok {
		return detail(c, fiber.StatusNotFound, msgIssueNotFound)
	}

	if err := h.issueService.Delete(c.UserContext(), middleware.CurrentUser(c), id, staffOnly); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
