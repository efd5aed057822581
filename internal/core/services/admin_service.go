package services

import (
	"errors"
	"log"

	"surplushub/internal/adapters/persistence/models"
	"surplushub/internal/adapters/persistence/repositories"
	"surplushub/internal/core/domain"
	"surplushub/internal/pkg/clock"

	"gorm.io/gorm"
)

// AdminService performs out-of-band status overrides. It bypasses the
// normal transition rules, including the terminal-state guard, and
// every override lands on the timeline.
type AdminService struct {
	db           *gorm.DB
	postRepo     *repositories.PostRepository
	claimRepo    *repositories.ClaimRepository
	timelineRepo *repositories.TimelineRepository
	clock        clock.Clock
}

// NewAdminService creates a new admin override service
func NewAdminService(
	db *gorm.DB,
	postRepo *repositories.PostRepository,
	claimRepo *repositories.ClaimRepository,
	timelineRepo *repositories.TimelineRepository,
	clk clock.Clock,
) *AdminService {
	return &AdminService{
		db:           db,
		postRepo:     postRepo,
		claimRepo:    claimRepo,
		timelineRepo: timelineRepo,
		clock:        clk,
	}
}

// OverrideStatus forces a post into the given status regardless of its
// current state. The raw status string is parsed at this boundary;
// unknown values fail with ErrInvalidStatus. If the post holds an ACTIVE
// claim and the new status is not CLAIMED, the claim is terminated too
// so post and claim stay consistent.
func (s *AdminService) OverrideStatus(postID uint, rawStatus, reason string, adminID uint) (*models.SurplusPost, error) {
	newStatus, err := domain.ParsePostStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	oldStatus := post.Status

	active, err := s.claimRepo.GetActiveByPost(post.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.postRepo.WithTx(tx).ForceStatus(post.ID, newStatus); err != nil {
			return err
		}

		if active != nil && newStatus != domain.PostClaimed {
			claimTarget := domain.ClaimCancelled
			if newStatus == domain.PostCompleted {
				claimTarget = domain.ClaimCompleted
			}
			if err := s.claimRepo.WithTx(tx).ForceStatus(active.ID, claimTarget); err != nil {
				return err
			}
		}

		return s.timelineRepo.WithTx(tx).Append(&models.TimelineEntry{
			PostID:         post.ID,
			EventType:      domain.EventAdminOverride,
			OccurredAt:     now,
			ActorID:        adminID,
			OldStatus:      string(oldStatus),
			NewStatus:      string(newStatus),
			Details:        reason,
			VisibleToUsers: false,
		})
	})
	if err != nil {
		return nil, err
	}

	post.Status = newStatus
	log.Printf("✅ Admin %d overrode post %d: %s → %s (%s)", adminID, post.ID, oldStatus, newStatus, reason)
	return post, nil
}

// FlagPost sets the moderation flag on a post. Flags are orthogonal to
// status and never move the state machine.
func (s *AdminService) FlagPost(postID uint, reason string, adminID uint) error {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPostNotFound
		}
		return err
	}

	if err := s.postRepo.SetFlag(post.ID, true, &reason); err != nil {
		return err
	}

	entry := &models.TimelineEntry{
		PostID:         post.ID,
		EventType:      domain.EventFlagged,
		OccurredAt:     s.clock.Now(),
		ActorID:        adminID,
		OldStatus:      string(post.Status),
		NewStatus:      string(post.Status),
		Details:        reason,
		VisibleToUsers: false,
	}
	if err := s.timelineRepo.Append(entry); err != nil {
		return err
	}

	log.Printf("🚩 Post %d flagged by admin %d: %s", post.ID, adminID, reason)
	return nil
}

// UnflagPost clears the moderation flag
func (s *AdminService) UnflagPost(postID uint, adminID uint) error {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPostNotFound
		}
		return err
	}

	if err := s.postRepo.SetFlag(postID, false, nil); err != nil {
		return err
	}
	log.Printf("✅ Post %d unflagged by admin %d", postID, adminID)
	return nil
}
