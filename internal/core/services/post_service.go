package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"surplushub/internal/adapters/persistence/models"
	"surplushub/internal/adapters/persistence/repositories"
	"surplushub/internal/core/domain"
	"surplushub/internal/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostService handles the donor-facing surplus post surface. It never
// transitions statuses after creation; that is the claim workflow's job.
type PostService struct {
	postRepo     *repositories.PostRepository
	claimRepo    *repositories.ClaimRepository
	timelineRepo *repositories.TimelineRepository
	clock        clock.Clock
}

// NewPostService creates a new post service
func NewPostService(
	postRepo *repositories.PostRepository,
	claimRepo *repositories.ClaimRepository,
	timelineRepo *repositories.TimelineRepository,
	clk clock.Clock,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		claimRepo:    claimRepo,
		timelineRepo: timelineRepo,
		clock:        clk,
	}
}

// SlotInput declares one pickup window on a new post
type SlotInput struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// CreatePostInput represents create post input
type CreatePostInput struct {
	Categories     []string    `json:"categories"`
	Quantity       float64     `json:"quantity"`
	Unit           string      `json:"unit"`
	PickupLocation string      `json:"pickup_location"`
	Description    string      `json:"description"`
	ExpiryDate     time.Time   `json:"expiry_date"`
	Slots          []SlotInput `json:"slots"`
}

// Create creates a new AVAILABLE surplus post with its declared slots
func (s *PostService) Create(donorID uint, input *CreatePostInput) (*models.SurplusPost, error) {
	now := s.clock.Now()

	if input.Quantity <= 0 || input.PickupLocation == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.ExpiryDate.After(now) {
		return nil, domain.ErrInvalidInput
	}
	if len(input.Slots) == 0 {
		return nil, domain.ErrInvalidPickupSlot
	}

	slots := make([]models.PickupSlot, 0, len(input.Slots))
	for _, in := range input.Slots {
		window := domain.PickupWindow{Date: in.Date, Start: in.StartTime, End: in.EndTime}
		if err := window.Validate(); err != nil {
			return nil, domain.ErrInvalidPickupSlot
		}
		end, err := window.EndAt()
		if err != nil || !end.After(now) {
			return nil, domain.ErrInvalidPickupSlot
		}
		slots = append(slots, models.PickupSlot{
			SlotDate:  in.Date,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
		})
	}

	post := &models.SurplusPost{
		Reference:      uuid.NewString(),
		DonorID:        donorID,
		Categories:     strings.Join(input.Categories, ","),
		Quantity:       input.Quantity,
		Unit:           input.Unit,
		PickupLocation: input.PickupLocation,
		Description:    input.Description,
		ExpiryDate:     input.ExpiryDate,
		Status:         domain.PostAvailable,
		Slots:          slots,
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}

	log.Printf("✅ Surplus post %d created by donor %d (%d slots)", post.ID, donorID, len(slots))
	return post, nil
}

// GetByID returns a post with slots and its active claim, if any
func (s *PostService) GetByID(postID uint) (*models.SurplusPost, *models.Claim, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrPostNotFound
		}
		return nil, nil, err
	}

	active, err := s.claimRepo.GetActiveByPost(post.ID)
	if err != nil {
		return nil, nil, err
	}
	return post, active, nil
}

// ListAvailable returns claimable posts
func (s *PostService) ListAvailable() ([]models.SurplusPost, error) {
	return s.postRepo.ListAvailable(s.clock.Now())
}

// Timeline returns the audit timeline for a post in chronological order.
// Non-admin callers only see entries marked visible to users.
func (s *PostService) Timeline(postID uint, isAdmin bool) ([]models.TimelineEntry, error) {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return s.timelineRepo.ListByPost(postID, !isAdmin)
}
