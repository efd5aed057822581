package repositories

import (
	"time"

	"surplushub/internal/adapters/persistence/models"
	"surplushub/internal/core/domain"

	"gorm.io/gorm"
)

// PostRepository handles surplus post database operations
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *PostRepository) WithTx(tx *gorm.DB) *PostRepository {
	return &PostRepository{db: tx}
}

// Create creates a new surplus post with its slots
func (r *PostRepository) Create(post *models.SurplusPost) error {
	return r.db.Create(post).Error
}

// GetByID returns a post by ID with slots preloaded
func (r *PostRepository) GetByID(id uint) (*models.SurplusPost, error) {
	var post models.SurplusPost
	err := r.db.
		Preload("Slots").
		First(&post, id).Error
	return &post, err
}

// ListAvailable returns AVAILABLE posts that have not passed their expiry date
func (r *PostRepository) ListAvailable(now time.Time) ([]models.SurplusPost, error) {
	var posts []models.SurplusPost
	err := r.db.
		Preload("Slots").
		Where("status = ? AND expiry_date > ?", domain.PostAvailable, now).
		Order("expiry_date ASC").
		Find(&posts).Error
	return posts, err
}

// UpdateStatusIf transitions a post from one status to another as a single
// conditional update. Returns the number of rows affected; zero means the
// post was not in the expected status and the transition must not be
// treated as done.
func (r *PostRepository) UpdateStatusIf(postID uint, from, to domain.PostStatus) (int64, error) {
	res := r.db.Model(&models.SurplusPost{}).
		Where("id = ? AND status = ?", postID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// ForceStatus sets a post status unconditionally. Only the admin override
// path may use this.
func (r *PostRepository) ForceStatus(postID uint, to domain.PostStatus) error {
	return r.db.Model(&models.SurplusPost{}).
		Where("id = ?", postID).
		Update("status", to).Error
}

// SetEvidence stores post-pickup evidence fields
func (r *PostRepository) SetEvidence(postID uint, photo *string, tempC *float64) error {
	updates := map[string]interface{}{}
	if photo != nil {
		updates["evidence_photo"] = *photo
	}
	if tempC != nil {
		updates["evidence_temp_c"] = *tempC
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.SurplusPost{}).Where("id = ?", postID).Updates(updates).Error
}

// SetFlag sets or clears the moderation flag on a post
func (r *PostRepository) SetFlag(postID uint, flagged bool, reason *string) error {
	return r.db.Model(&models.SurplusPost{}).Where("id = ?", postID).Updates(map[string]interface{}{
		"flagged":     flagged,
		"flag_reason": reason,
	}).Error
}

// ListExpiredAvailable returns AVAILABLE posts whose expiry date has passed
func (r *PostRepository) ListExpiredAvailable(now time.Time) ([]models.SurplusPost, error) {
	var posts []models.SurplusPost
	err := r.db.
		Where("status = ? AND expiry_date <= ?", domain.PostAvailable, now).
		Find(&posts).Error
	return posts, err
}
