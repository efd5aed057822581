package handlers

import (
	"errors"

	"surplushub/internal/core/domain"
	"surplushub/internal/core/services"
	"surplushub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles admin override endpoints
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// OverrideRequest represents an admin status override request
type OverrideRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Override forces a post status outside the normal rules
// @Summary Admin status override
// @Description Force any status transition; always recorded on the timeline
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param body body OverrideRequest true "Target status and reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/posts/{id}/status [post]
func (h *AdminHandler) Override(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid post ID")
	}

	var req OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Reason == "" {
		return response.BadRequest(c, "Reason is required")
	}

	adminID, _ := c.Locals("userID").(uint)

	post, err := h.adminService.OverrideStatus(postID, req.Status, req.Reason, adminID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidStatus):
			return response.BadRequest(c, "Unknown status value")
		case errors.Is(err, domain.ErrPostNotFound):
			return response.NotFound(c, "Post not found")
		default:
			return response.InternalServerError(c, "Failed to override status")
		}
	}

	return response.Success(c, "Status overridden", fiber.Map{
		"post_id":   post.ID,
		"reference": post.Reference,
		"status":    post.Status,
	})
}

// FlagRequest represents a moderation flag request
type FlagRequest struct {
	Reason string `json:"reason"`
}

// Flag marks a post for moderation
// @Summary Flag post
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param body body FlagRequest true "Flag reason"
// @Success 200 {object} response.Response
// @Router /admin/posts/{id}/flag [post]
func (h *AdminHandler) Flag(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid post ID")
	}

	var req FlagRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Reason == "" {
		return response.BadRequest(c, "Reason is required")
	}

	adminID, _ := c.Locals("userID").(uint)

	if err := h.adminService.FlagPost(postID, req.Reason, adminID); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to flag post")
	}

	return response.Success(c, "Post flagged", nil)
}

// Unflag clears a moderation flag
// @Summary Unflag post
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} response.Response
// @Router /admin/posts/{id}/flag [delete]
func (h *AdminHandler) Unflag(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid post ID")
	}

	adminID, _ := c.Locals("userID").(uint)

	if err := h.adminService.UnflagPost(postID, adminID); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to unflag post")
	}

	return response.Success(c, "Post unflagged", nil)
}
