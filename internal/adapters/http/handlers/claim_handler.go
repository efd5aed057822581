package handlers

import (
	"errors"
	"time"

	"surplushub/internal/core/domain"
	"surplushub/internal/core/services"
	"surplushub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ClaimHandler handles the claim & pickup workflow endpoints
type ClaimHandler struct {
	claimService *services.ClaimService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claimService *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
	}
}

// ClaimRequest represents a claim request: either a declared slot id
// or an inline window
type ClaimRequest struct {
	SlotID    *uint  `json:"slot_id,omitempty"`
	Date      string `json:"date,omitempty"` // "2006-01-02"
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Claim claims an available post
// @Summary Claim a surplus post
// @Description Atomically reserve an AVAILABLE post; losers of a race get 409
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param body body ClaimRequest true "Slot selection"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /posts/{id}/claim [post]
func (h *ClaimHandler) Claim(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid post ID")
	}

	var req ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	sel := services.SlotSelection{
		SlotID:    req.SlotID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.SlotID == nil && req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return response.BadRequest(c, "Invalid date, use YYYY-MM-DD")
		}
		sel.Date = &date
	}

	userID, _ := c.Locals("userID").(uint)

	claim, err := h.claimService.ClaimPost(postID, userID, sel)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPostNotFound):
			return response.NotFound(c, "Post not found")
		case errors.Is(err, domain.ErrPostNotAvailable):
			return response.Conflict(c, "Post is already claimed or no longer available")
		case errors.Is(err, domain.ErrInvalidPickupSlot):
			return response.BadRequest(c, "Invalid pickup slot")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You cannot claim this post")
		default:
			return response.InternalServerError(c, "Failed to claim post")
		}
	}

	return response.Created(c, "Post claimed successfully", fiber.Map{
		"claim_id":               claim.ID,
		"post_id":                claim.PostID,
		"status":                 claim.Status,
		"confirmed_pickup_date":  claim.PickupDate.Format("2006-01-02"),
		"confirmed_pickup_start": claim.PickupStart,
		"confirmed_pickup_end":   claim.PickupEnd,
	})
}

// GenerateCode issues a fresh pickup code
// @Summary Generate pickup code
// @Description Issue a one-time 6-digit code; regenerating invalidates the previous code
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /claims/{id}/code [post]
func (h *ClaimHandler) GenerateCode(c *fiber.Ctx) error {
	claimID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid claim ID")
	}

	userID, _ := c.Locals("userID").(uint)

	result, err := h.claimService.GeneratePickupCode(claimID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrClaimNotFound):
			return response.NotFound(c, "Claim not found")
		case errors.Is(err, domain.ErrClaimNotActive):
			return response.Conflict(c, "Claim is not active")
		case errors.Is(err, domain.ErrStateConflict):
			return response.Conflict(c, "Claim status changed, please retry")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You are not a party to this claim")
		default:
			return response.InternalServerError(c, "Failed to generate pickup code")
		}
	}

	return response.Success(c, "Pickup code generated", result)
}

// ConfirmRequest represents a pickup confirmation request
type ConfirmRequest struct {
	Code     string   `json:"code"`
	PhotoURL *string  `json:"photo_url,omitempty"`
	TempC    *float64 `json:"temp_c,omitempty"`
}

// Confirm confirms the physical pickup with a code
// @Summary Confirm pickup
// @Description Validate code + time window and complete the handover
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body ConfirmRequest true "Pickup code and optional evidence"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /claims/{id}/confirm [post]
func (h *ClaimHandler) Confirm(c *fiber.Ctx) error {
	claimID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid claim ID")
	}

	var req ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	userID, _ := c.Locals("userID").(uint)
	evidence := services.PickupEvidence{PhotoURL: req.PhotoURL, TempC: req.TempC}

	result, err := h.claimService.ConfirmPickup(claimID, req.Code, userID, evidence)
	if err != nil {
		// Each failure kind gets its own message so clients can explain
		// exactly why the confirmation was rejected
		switch {
		case errors.Is(err, domain.ErrClaimNotFound):
			return response.NotFound(c, "Claim not found")
		case errors.Is(err, domain.ErrClaimNotActive):
			return response.Conflict(c, "Claim is not active")
		case errors.Is(err, domain.ErrStateConflict):
			return response.Conflict(c, "Claim status changed, please retry")
		case errors.Is(err, domain.ErrInvalidCodeFormat):
			return response.BadRequest(c, "Pickup code must be 6 digits")
		case errors.Is(err, domain.ErrInvalidCode):
			return response.BadRequest(c, "Wrong pickup code")
		case errors.Is(err, domain.ErrCodeExpired):
			return response.BadRequest(c, "Pickup code expired, request a new one")
		case errors.Is(err, domain.ErrOutsidePickupWindow):
			return response.BadRequest(c, "Outside the allowed pickup window")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You are not a party to this claim")
		default:
			return response.InternalServerError(c, "Failed to confirm pickup")
		}
	}

	return response.Success(c, "Pickup confirmed", result)
}

// CancelRequest represents a cancel request
type CancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel cancels an active claim
// @Summary Cancel claim
// @Description Cancel an ACTIVE claim; the post becomes AVAILABLE again unless expired
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body CancelRequest true "Cancellation reason"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /claims/{id}/cancel [post]
func (h *ClaimHandler) Cancel(c *fiber.Ctx) error {
	claimID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid claim ID")
	}

	var req CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	userID, _ := c.Locals("userID").(uint)

	if err := h.claimService.CancelClaim(claimID, userID, req.Reason); err != nil {
		switch {
		case errors.Is(err, domain.ErrClaimNotFound):
			return response.NotFound(c, "Claim not found")
		case errors.Is(err, domain.ErrStateConflict):
			return response.Conflict(c, "Claim is not active")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You are not a party to this claim")
		default:
			return response.InternalServerError(c, "Failed to cancel claim")
		}
	}

	return response.Success(c, "Claim cancelled", nil)
}

// Get returns a claim for one of its parties
// @Summary Get claim
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id} [get]
func (h *ClaimHandler) Get(c *fiber.Ctx) error {
	claimID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid claim ID")
	}

	userID, _ := c.Locals("userID").(uint)

	claim, err := h.claimService.GetClaim(claimID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrClaimNotFound):
			return response.NotFound(c, "Claim not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You are not a party to this claim")
		default:
			return response.InternalServerError(c, "Failed to get claim")
		}
	}

	return response.Success(c, "Claim retrieved successfully", fiber.Map{
		"claim": claim,
	})
}
