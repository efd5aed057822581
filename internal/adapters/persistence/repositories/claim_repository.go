package repositories

import (
	"time"

	"surplushub/internal/adapters/persistence/models"
	"surplushub/internal/core/domain"

	"gorm.io/gorm"
)

// ClaimRepository handles claim database operations
type ClaimRepository struct {
	db *gorm.DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ClaimRepository) WithTx(tx *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: tx}
}

// Create creates a new claim
func (r *ClaimRepository) Create(claim *models.Claim) error {
	return r.db.Create(claim).Error
}

// GetByID returns a claim by ID with its post (and the post's donor) preloaded
func (r *ClaimRepository) GetByID(id uint) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.
		Preload("Post").
		First(&claim, id).Error
	return &claim, err
}

// GetActiveByPost returns the ACTIVE claim for a post, or nil if none
func (r *ClaimRepository) GetActiveByPost(postID uint) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.
		Where("post_id = ? AND status = ?", postID, domain.ClaimActive).
		First(&claim).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &claim, err
}

// UpdateIfActive applies updates to a claim only while it is still ACTIVE,
// as a single conditional update. Zero rows affected means another request
// already moved the claim out of ACTIVE.
func (r *ClaimRepository) UpdateIfActive(claimID uint, updates map[string]interface{}) (int64, error) {
	res := r.db.Model(&models.Claim{}).
		Where("id = ? AND status = ?", claimID, domain.ClaimActive).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ForceStatus sets a claim status unconditionally. Only the admin override
// path may use this.
func (r *ClaimRepository) ForceStatus(claimID uint, to domain.ClaimStatus) error {
	return r.db.Model(&models.Claim{}).
		Where("id = ?", claimID).
		Update("status", to).Error
}

// ListActiveDueBy returns ACTIVE claims with their posts whose pickup date
// is on or before the given day. The caller decides which of them are
// actually overdue; wall-clock slot times are not comparable in SQL.
func (r *ClaimRepository) ListActiveDueBy(day time.Time) ([]models.Claim, error) {
	var claims []models.Claim
	err := r.db.
		Preload("Post").
		Where("status = ? AND pickup_date <= ?", domain.ClaimActive, day).
		Find(&claims).Error
	return claims, err
}
