package repositories

import (
	"surplushub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// TimelineRepository handles the append-only timeline table
type TimelineRepository struct {
	db *gorm.DB
}

// NewTimelineRepository creates a new timeline repository
func NewTimelineRepository(db *gorm.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *TimelineRepository) WithTx(tx *gorm.DB) *TimelineRepository {
	return &TimelineRepository{db: tx}
}

// Append inserts a timeline entry. Entries are never updated afterwards.
func (r *TimelineRepository) Append(entry *models.TimelineEntry) error {
	return r.db.Create(entry).Error
}

// ListByPost returns timeline entries for a post in chronological order.
// With visibleOnly set, internal-only entries are filtered out for
// non-admin callers.
func (r *TimelineRepository) ListByPost(postID uint, visibleOnly bool) ([]models.TimelineEntry, error) {
	q := r.db.Where("post_id = ?", postID)
	if visibleOnly {
		q = q.Where("visible_to_users = ?", true)
	}
	var entries []models.TimelineEntry
	err := q.Order("occurred_at ASC, id ASC").Find(&entries).Error
	return entries, err
}
