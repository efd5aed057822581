package services

import (
	"errors"
	"log"
	"time"

	"surplushub/internal/adapters/persistence/models"
	"surplushub/internal/adapters/persistence/repositories"
	"surplushub/internal/config"
	"surplushub/internal/core/domain"
	"surplushub/internal/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ToleranceConfig is the process-wide pickup timing configuration.
// Injected at construction so tests can vary it per case.
type ToleranceConfig struct {
	Early   time.Duration // allowed margin before the slot start
	Late    time.Duration // allowed margin after the slot end
	CodeTTL time.Duration // pickup code validity after generation
}

// DefaultTolerance mirrors the documented defaults: 15 min early,
// 30 min late, codes valid 15 minutes after generation.
var DefaultTolerance = ToleranceConfig{
	Early:   15 * time.Minute,
	Late:    30 * time.Minute,
	CodeTTL: 15 * time.Minute,
}

// ToleranceFromConfig converts the process configuration into durations
func ToleranceFromConfig(cfg config.PickupConfig) ToleranceConfig {
	return ToleranceConfig{
		Early:   time.Duration(cfg.EarlyToleranceMinutes) * time.Minute,
		Late:    time.Duration(cfg.LateToleranceMinutes) * time.Minute,
		CodeTTL: time.Duration(cfg.CodeTTLMinutes) * time.Minute,
	}
}

// ClaimService orchestrates the claim & pickup-confirmation workflow.
// It is the only component besides AdminService that mutates post/claim
// status, and every transition it makes is a status-guarded conditional
// update so concurrent requests cannot both win.
type ClaimService struct {
	db           *gorm.DB
	postRepo     *repositories.PostRepository
	claimRepo    *repositories.ClaimRepository
	timelineRepo *repositories.TimelineRepository
	notify       Notifier
	clock        clock.Clock
	codeGen      CodeGenerator
	tolerance    ToleranceConfig
}

// NewClaimService creates a new claim workflow service
func NewClaimService(
	db *gorm.DB,
	postRepo *repositories.PostRepository,
	claimRepo *repositories.ClaimRepository,
	timelineRepo *repositories.TimelineRepository,
	notify Notifier,
	clk clock.Clock,
	codeGen CodeGenerator,
	tolerance ToleranceConfig,
) *ClaimService {
	return &ClaimService{
		db:           db,
		postRepo:     postRepo,
		claimRepo:    claimRepo,
		timelineRepo: timelineRepo,
		notify:       notify,
		clock:        clk,
		codeGen:      codeGen,
		tolerance:    tolerance,
	}
}

// ============================================================
// Claim a post
// ============================================================

// SlotSelection picks one of the post's declared slots by ID, or
// supplies an inline window (date + start/end time).
type SlotSelection struct {
	SlotID    *uint      `json:"slot_id,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	StartTime string     `json:"start_time,omitempty"`
	EndTime   string     `json:"end_time,omitempty"`
}

// ClaimPost atomically claims an AVAILABLE post for a receiver.
// Exactly one of N concurrent calls on the same post succeeds; the
// losers observe ErrPostNotAvailable and no claim row is created for them.
func (s *ClaimService) ClaimPost(postID, receiverID uint, sel SlotSelection) (*models.Claim, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}

	// Fast-path precondition check; the conditional update below is what
	// actually decides the race.
	if post.Status != domain.PostAvailable {
		return nil, domain.ErrPostNotAvailable
	}
	if post.DonorID == receiverID {
		return nil, domain.ErrForbidden
	}

	now := s.clock.Now()
	window, err := s.resolveWindow(post, sel)
	if err != nil {
		return nil, err
	}
	end, err := window.EndAt()
	if err != nil || !end.After(now) {
		return nil, domain.ErrInvalidPickupSlot
	}

	claim := &models.Claim{
		Reference:   uuid.NewString(),
		PostID:      post.ID,
		ReceiverID:  receiverID,
		Status:      domain.ClaimActive,
		ClaimedAt:   now,
		PickupDate:  window.Date,
		PickupStart: window.Start,
		PickupEnd:   window.End,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.postRepo.WithTx(tx).UpdateStatusIf(post.ID, domain.PostAvailable, domain.PostClaimed)
		if err != nil {
			return err
		}
		if rows == 0 {
			// Lost the race: another receiver claimed first
			return domain.ErrPostNotAvailable
		}

		if err := s.claimRepo.WithTx(tx).Create(claim); err != nil {
			return err
		}

		return s.timelineRepo.WithTx(tx).Append(&models.TimelineEntry{
			PostID:         post.ID,
			EventType:      domain.EventClaimed,
			OccurredAt:     now,
			ActorID:        receiverID,
			OldStatus:      string(domain.PostAvailable),
			NewStatus:      string(domain.PostClaimed),
			Details:        "post claimed for pickup " + window.Date.Format("2006-01-02") + " " + window.Start + "-" + window.End,
			VisibleToUsers: true,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.NotifyClaimed(post.ID, claim.ID, receiverID)
	}

	log.Printf("✅ Post %d claimed by receiver %d (claim %d)", post.ID, receiverID, claim.ID)
	return claim, nil
}

// resolveWindow maps a slot selection onto a validated pickup window
func (s *ClaimService) resolveWindow(post *models.SurplusPost, sel SlotSelection) (domain.PickupWindow, error) {
	var window domain.PickupWindow

	switch {
	case sel.SlotID != nil:
		found := false
		for i := range post.Slots {
			if post.Slots[i].ID == *sel.SlotID {
				window = post.Slots[i].Window()
				found = true
				break
			}
		}
		if !found {
			return window, domain.ErrInvalidPickupSlot
		}
	case sel.Date != nil:
		window = domain.PickupWindow{Date: *sel.Date, Start: sel.StartTime, End: sel.EndTime}
	default:
		return window, domain.ErrInvalidPickupSlot
	}

	if err := window.Validate(); err != nil {
		return window, domain.ErrInvalidPickupSlot
	}
	return window, nil
}

// ============================================================
// Pickup code
// ============================================================

// CodeResult is returned to the requester of a pickup code. The code is
// shown only to the requester's side; the counter-party obtains it out
// of band and submits it at pickup.
type CodeResult struct {
	ClaimID     uint      `json:"claim_id"`
	Code        string    `json:"code"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// GeneratePickupCode issues a fresh one-time 6-digit code for an ACTIVE
// claim. Regenerating overwrites any previous code, which becomes invalid
// immediately.
func (s *ClaimService) GeneratePickupCode(claimID, requesterID uint) (*CodeResult, error) {
	claim, err := s.getClaim(claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != domain.ClaimActive {
		return nil, domain.ErrClaimNotActive
	}
	if !isParty(claim, requesterID) {
		return nil, domain.ErrForbidden
	}

	code, err := s.codeGen.Generate()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.tolerance.CodeTTL)
	regenerated := claim.PickupCode != nil

	rows, err := s.claimRepo.UpdateIfActive(claim.ID, map[string]interface{}{
		"pickup_code":       code,
		"code_generated_at": now,
		"code_expires_at":   expiresAt,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.ErrStateConflict
	}

	details := "pickup code issued"
	if regenerated {
		details = "pickup code regenerated, previous code invalidated"
	}
	s.appendTimeline(claim.PostID, domain.EventOTPGenerated, requesterID, now,
		string(domain.PostClaimed), string(domain.PostClaimed), details, false)

	if s.notify != nil {
		s.notify.NotifyCodeGenerated(claim.PostID, claim.ID, expiresAt)
	}

	log.Printf("✅ Pickup code generated for claim %d (expires %s)", claim.ID, expiresAt.Format(time.RFC3339))
	return &CodeResult{
		ClaimID:     claim.ID,
		Code:        code,
		GeneratedAt: now,
		ExpiresAt:   expiresAt,
	}, nil
}

// ============================================================
// Confirm pickup
// ============================================================

// PickupEvidence carries optional post-pickup proof
type PickupEvidence struct {
	PhotoURL *string  `json:"photo_url,omitempty"`
	TempC    *float64 `json:"temp_c,omitempty"`
}

// ConfirmResult is the completion summary
type ConfirmResult struct {
	ClaimID    uint      `json:"claim_id"`
	PostID     uint      `json:"post_id"`
	PickedUpAt time.Time `json:"picked_up_at"`
}

// ConfirmPickup validates the submitted code and the time window, then
// completes claim and post. Checks run in a fixed order with no partial
// effects: active claim, exact code match, code TTL, slot tolerance
// window. Each failure has its own error kind so callers can explain
// which rule was broken.
func (s *ClaimService) ConfirmPickup(claimID uint, submittedCode string, confirmerID uint, evidence PickupEvidence) (*ConfirmResult, error) {
	claim, err := s.getClaim(claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != domain.ClaimActive {
		return nil, domain.ErrClaimNotActive
	}
	if !isParty(claim, confirmerID) {
		return nil, domain.ErrForbidden
	}
	if !ValidCodeFormat(submittedCode) {
		return nil, domain.ErrInvalidCodeFormat
	}
	if claim.PickupCode == nil || *claim.PickupCode != submittedCode {
		return nil, domain.ErrInvalidCode
	}

	now := s.clock.Now()
	if claim.CodeExpiresAt == nil || now.After(*claim.CodeExpiresAt) {
		return nil, domain.ErrCodeExpired
	}

	inWindow, err := claim.Window().Contains(now, s.tolerance.Early, s.tolerance.Late)
	if err != nil {
		return nil, err
	}
	if !inWindow {
		return nil, domain.ErrOutsidePickupWindow
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Single-use: the code is cleared together with the completion
		rows, err := s.claimRepo.WithTx(tx).UpdateIfActive(claim.ID, map[string]interface{}{
			"status":            domain.ClaimCompleted,
			"picked_up_at":      now,
			"pickup_code":       nil,
			"code_generated_at": nil,
			"code_expires_at":   nil,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrStateConflict
		}

		rows, err = s.postRepo.WithTx(tx).UpdateStatusIf(claim.PostID, domain.PostClaimed, domain.PostCompleted)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrStateConflict
		}

		if evidence.PhotoURL != nil || evidence.TempC != nil {
			if err := s.postRepo.WithTx(tx).SetEvidence(claim.PostID, evidence.PhotoURL, evidence.TempC); err != nil {
				return err
			}
		}

		return s.timelineRepo.WithTx(tx).Append(&models.TimelineEntry{
			PostID:         claim.PostID,
			EventType:      domain.EventPickupConfirmed,
			OccurredAt:     now,
			ActorID:        confirmerID,
			OldStatus:      string(domain.PostClaimed),
			NewStatus:      string(domain.PostCompleted),
			Details:        "pickup confirmed with valid code",
			VisibleToUsers: true,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.NotifyPickupConfirmed(claim.PostID, claim.ID)
	}

	log.Printf("✅ Pickup confirmed for claim %d (post %d) by user %d", claim.ID, claim.PostID, confirmerID)
	return &ConfirmResult{
		ClaimID:    claim.ID,
		PostID:     claim.PostID,
		PickedUpAt: now,
	}, nil
}

// ============================================================
// Cancel
// ============================================================

// CancelClaim cancels an ACTIVE claim. The post returns to AVAILABLE
// unless its expiry date has passed, in which case it goes to EXPIRED.
func (s *ClaimService) CancelClaim(claimID, actorID uint, reason string) error {
	claim, err := s.getClaim(claimID)
	if err != nil {
		return err
	}
	if claim.Status != domain.ClaimActive {
		return domain.ErrStateConflict
	}
	if !isParty(claim, actorID) {
		return domain.ErrForbidden
	}

	now := s.clock.Now()
	postTarget := domain.PostAvailable
	if now.After(claim.Post.ExpiryDate) {
		postTarget = domain.PostExpired
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := s.claimRepo.WithTx(tx).UpdateIfActive(claim.ID, map[string]interface{}{
			"status":            domain.ClaimCancelled,
			"pickup_code":       nil,
			"code_generated_at": nil,
			"code_expires_at":   nil,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrStateConflict
		}

		rows, err = s.postRepo.WithTx(tx).UpdateStatusIf(claim.PostID, domain.PostClaimed, postTarget)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrStateConflict
		}

		return s.timelineRepo.WithTx(tx).Append(&models.TimelineEntry{
			PostID:         claim.PostID,
			EventType:      domain.EventCancelled,
			OccurredAt:     now,
			ActorID:        actorID,
			OldStatus:      string(domain.PostClaimed),
			NewStatus:      string(postTarget),
			Details:        reason,
			VisibleToUsers: true,
		})
	})
	if err != nil {
		return err
	}

	if s.notify != nil {
		s.notify.NotifyCancelled(claim.PostID, claim.ID, reason)
	}

	log.Printf("✅ Claim %d cancelled by user %d (post %d → %s)", claim.ID, actorID, claim.PostID, postTarget)
	return nil
}

// ============================================================
// Queries & helpers
// ============================================================

// GetClaim returns a claim visible to one of its parties
func (s *ClaimService) GetClaim(claimID, requesterID uint) (*models.Claim, error) {
	claim, err := s.getClaim(claimID)
	if err != nil {
		return nil, err
	}
	if !isParty(claim, requesterID) {
		return nil, domain.ErrForbidden
	}
	return claim, nil
}

func (s *ClaimService) getClaim(claimID uint) (*models.Claim, error) {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClaimNotFound
		}
		return nil, err
	}
	return claim, nil
}

// isParty reports whether the user is the claim's receiver or the post's donor
func isParty(claim *models.Claim, userID uint) bool {
	return userID == claim.ReceiverID || userID == claim.Post.DonorID
}

func (s *ClaimService) appendTimeline(postID uint, event domain.TimelineEvent, actorID uint, at time.Time, oldStatus, newStatus, details string, visible bool) {
	entry := &models.TimelineEntry{
		PostID:         postID,
		EventType:      event,
		OccurredAt:     at,
		ActorID:        actorID,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		Details:        details,
		VisibleToUsers: visible,
	}
	if err := s.timelineRepo.Append(entry); err != nil {
		log.Printf("⚠️ Timeline append failed for post %d: %v", postID, err)
	}
}
