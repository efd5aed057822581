package handlers

import (
	"errors"
	"strconv"
	"time"

	"surplushub/internal/core/domain"
	"surplushub/internal/core/services"
	"surplushub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PostHandler handles surplus post endpoints
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// SlotRequest declares one pickup window
type SlotRequest struct {
	Date      string `json:"date"`       // "2006-01-02"
	StartTime string `json:"start_time"` // "15:04"
	EndTime   string `json:"end_time"`   // "15:04"
}

// CreatePostRequest represents create post request
type CreatePostRequest struct {
	Categories     []string      `json:"categories"`
	Quantity       float64       `json:"quantity"`
	Unit           string        `json:"unit"`
	PickupLocation string        `json:"pickup_location"`
	Description    string        `json:"description"`
	ExpiryDate     string        `json:"expiry_date"` // RFC3339
	Slots          []SlotRequest `json:"slots"`
}

// Create creates a new surplus post
// @Summary Create surplus post
// @Description Post surplus food with pickup slots (Donor only)
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePostRequest true "Post data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /posts [post]
func (h *PostHandler) Create(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Quantity <= 0 {
		return response.BadRequest(c, "Quantity must be greater than 0")
	}
	if req.PickupLocation == "" {
		return response.BadRequest(c, "Pickup location is required")
	}
	if len(req.Slots) == 0 {
		return response.BadRequest(c, "At least one pickup slot is required")
	}

	expiry, err := time.Parse(time.RFC3339, req.ExpiryDate)
	if err != nil {
		return response.BadRequest(c, "Invalid expiry date, use RFC3339")
	}

	input := &services.CreatePostInput{
		Categories:     req.Categories,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		PickupLocation: req.PickupLocation,
		Description:    req.Description,
		ExpiryDate:     expiry,
	}
	for _, slot := range req.Slots {
		date, err := time.Parse("2006-01-02", slot.Date)
		if err != nil {
			return response.BadRequest(c, "Invalid slot date, use YYYY-MM-DD")
		}
		input.Slots = append(input.Slots, services.SlotInput{
			Date:      date,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}

	userID, _ := c.Locals("userID").(uint)

	post, err := h.postService.Create(userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPickupSlot):
			return response.BadRequest(c, "Invalid pickup slot")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid post data")
		default:
			return response.InternalServerError(c, "Failed to create post")
		}
	}

	return response.Created(c, "Post created successfully", fiber.Map{
		"post": post,
	})
}

// Get returns a post with its active claim summary
// @Summary Get surplus post
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /posts/{id} [get]
func (h *PostHandler) Get(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid post ID")
	}

	post, activeClaim, err := h.postService.GetByID(postID)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to get post")
	}

	return response.Success(c, "Post retrieved successfully", fiber.Map{
		"post":         post,
		"active_claim": activeClaim,
	})
}

// List returns claimable posts
// @Summary List available posts
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /posts [get]
func (h *PostHandler) List(c *fiber.Ctx) error {
	posts, err := h.postService.ListAvailable()
	if err != nil {
		return response.InternalServerError(c, "Failed to list posts")
	}

	return response.Success(c, "Posts retrieved successfully", fiber.Map{
		"posts": posts,
	})
}

// Timeline returns the audit timeline for a post
// @Summary Post timeline
// @Description Chronological audit events for a post; internal entries are admin-only
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /posts/{id}/timeline [get]
func (h *PostHandler) Timeline(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid post ID")
	}

	role, _ := c.Locals("role").(string)
	isAdmin := role == string(domain.RoleAdmin)

	entries, err := h.postService.Timeline(postID, isAdmin)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return response.NotFound(c, "Post not found")
		}
		return response.InternalServerError(c, "Failed to get timeline")
	}

	return response.Success(c, "Timeline retrieved successfully", fiber.Map{
		"timeline": entries,
	})
}

// parseIDParam parses a uint route parameter
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
