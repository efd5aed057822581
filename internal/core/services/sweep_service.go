package services

import (
	"log"
	"time"

	"surplushub/internal/adapters/persistence/models"
	"surplushub/internal/adapters/persistence/repositories"
	"surplushub/internal/core/domain"
	"surplushub/internal/pkg/clock"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ============================================================
// Background expiry sweep
// ============================================================

// SweepService expires AVAILABLE posts past their expiry date and
// auto-cancels ACTIVE claims whose pickup window plus late tolerance
// has passed unconfirmed. It uses the same status-guarded conditional
// updates as the user-driven workflow, so it is idempotent and safe to
// run concurrently with live requests: it only acts on rows still in
// the expected state.
type SweepService struct {
	db           *gorm.DB
	postRepo     *repositories.PostRepository
	claimRepo    *repositories.ClaimRepository
	timelineRepo *repositories.TimelineRepository
	notify       Notifier
	clock        clock.Clock
	tolerance    ToleranceConfig
}

// NewSweepService creates a new sweep service
func NewSweepService(
	db *gorm.DB,
	postRepo *repositories.PostRepository,
	claimRepo *repositories.ClaimRepository,
	timelineRepo *repositories.TimelineRepository,
	notify Notifier,
	clk clock.Clock,
	tolerance ToleranceConfig,
) *SweepService {
	return &SweepService{
		db:           db,
		postRepo:     postRepo,
		claimRepo:    claimRepo,
		timelineRepo: timelineRepo,
		notify:       notify,
		clock:        clk,
		tolerance:    tolerance,
	}
}

// RunOnce performs a single sweep pass. It assumes nothing about how it
// is invoked; scheduling lives in SweepScheduler.
func (s *SweepService) RunOnce() {
	now := s.clock.Now()
	s.expirePosts(now)
	s.cancelOverdueClaims(now)
}

// expirePosts moves AVAILABLE posts past expiry to EXPIRED
func (s *SweepService) expirePosts(now time.Time) {
	posts, err := s.postRepo.ListExpiredAvailable(now)
	if err != nil {
		log.Printf("❌ Expiry sweep query error: %v", err)
		return
	}

	for _, post := range posts {
		rows, err := s.postRepo.UpdateStatusIf(post.ID, domain.PostAvailable, domain.PostExpired)
		if err != nil {
			log.Printf("❌ Expire post %d error: %v", post.ID, err)
			continue
		}
		if rows == 0 {
			// Someone claimed or overrode the post since the query; leave it
			continue
		}

		s.appendSweepEntry(post.ID, domain.EventExpired, now,
			string(domain.PostAvailable), string(domain.PostExpired), "post passed its expiry date")
		log.Printf("🗑️ Post %d expired (expiry %s)", post.ID, post.ExpiryDate.Format("2006-01-02"))
	}

	if len(posts) > 0 {
		log.Printf("🗑️ Expiry sweep processed %d posts", len(posts))
	}
}

// cancelOverdueClaims auto-cancels ACTIVE claims whose confirmed window
// plus late tolerance has passed without confirmation
func (s *SweepService) cancelOverdueClaims(now time.Time) {
	claims, err := s.claimRepo.ListActiveDueBy(now)
	if err != nil {
		log.Printf("❌ Overdue claim query error: %v", err)
		return
	}

	for i := range claims {
		claim := &claims[i]
		deadline, err := claim.Window().Deadline(s.tolerance.Late)
		if err != nil || now.Before(deadline) {
			continue
		}

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
				ActorID:        domain.SystemActorID,
				OldStatus:      string(domain.PostClaimed),
				NewStatus:      string(postTarget),
				Details:        "pickup not confirmed within tolerance, auto-cancelled",
				VisibleToUsers: true,
			})
		})
		if err != nil {
			if err != domain.ErrStateConflict {
				log.Printf("❌ Auto-cancel claim %d error: %v", claim.ID, err)
			}
			continue
		}

		if s.notify != nil {
			s.notify.NotifyCancelled(claim.PostID, claim.ID, "pickup window missed")
		}
		log.Printf("🗑️ Auto-cancelled overdue claim %d (post %d → %s)", claim.ID, claim.PostID, postTarget)
	}
}

func (s *SweepService) appendSweepEntry(postID uint, event domain.TimelineEvent, at time.Time, oldStatus, newStatus, details string) {
	entry := &models.TimelineEntry{
		PostID:         postID,
		EventType:      event,
		OccurredAt:     at,
		ActorID:        domain.SystemActorID,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		Details:        details,
		VisibleToUsers: true,
	}
	if err := s.timelineRepo.Append(entry); err != nil {
		log.Printf("⚠️ Timeline append failed for post %d: %v", postID, err)
	}
}

// ============================================================
// Scheduler
// ============================================================

// SweepScheduler drives the sweep on a cron schedule
type SweepScheduler struct {
	cron  *cron.Cron
	sweep *SweepService
}

// NewSweepScheduler wires the sweep to run every minute
func NewSweepScheduler(sweep *SweepService) *SweepScheduler {
	return &SweepScheduler{
		cron:  cron.New(),
		sweep: sweep,
	}
}

// Start begins periodic sweeping
func (s *SweepScheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.sweep.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("🚀 Expiry sweep scheduler started (every 1m)")
	return nil
}

// Stop halts scheduling; a running sweep pass finishes on its own
func (s *SweepScheduler) Stop() {
	s.cron.Stop()
	log.Println("🛑 Expiry sweep scheduler stopped")
}
