package models

import (
	"time"

	"surplushub/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Users
// ============================================================

// User represents users table (donor/receiver organizations + admins)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	OrgName   string         `gorm:"size:150" json:"org_name"`
	Role      string         `gorm:"size:20;default:'DONOR'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// ============================================================
// Surplus posts
// ============================================================

// SurplusPost represents surplus_posts table
type SurplusPost struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	Reference      string            `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	DonorID        uint              `gorm:"not null;index" json:"donor_id"`
	Categories     string            `gorm:"size:255" json:"categories"`
	Quantity       float64           `gorm:"not null" json:"quantity"`
	Unit           string            `gorm:"size:20" json:"unit"`
	PickupLocation string            `gorm:"size:255;not null" json:"pickup_location"`
	Description    string            `gorm:"type:text" json:"description"`
	ExpiryDate     time.Time         `gorm:"not null;index" json:"expiry_date"`
	Status         domain.PostStatus `gorm:"size:15;default:'AVAILABLE';index" json:"status"`
	Flagged        bool              `gorm:"default:false" json:"flagged"`
	FlagReason     *string           `gorm:"size:255" json:"flag_reason,omitempty"`
	EvidencePhoto  *string           `gorm:"size:255" json:"evidence_photo,omitempty"`
	EvidenceTempC  *float64          `json:"evidence_temp_c,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt    `gorm:"index" json:"-"`
	Donor          User              `gorm:"foreignKey:DonorID" json:"donor,omitempty"`
	Slots          []PickupSlot      `gorm:"foreignKey:PostID" json:"slots,omitempty"`
	Claims         []Claim           `gorm:"foreignKey:PostID" json:"claims,omitempty"`
}

func (SurplusPost) TableName() string {
	return "surplus_posts"
}

// PickupSlot represents pickup_slots table (declared windows on a post)
type PickupSlot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	SlotDate  time.Time `gorm:"type:date;not null" json:"slot_date"`
	StartTime string    `gorm:"size:10;not null" json:"start_time"`
	EndTime   string    `gorm:"size:10;not null" json:"end_time"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PickupSlot) TableName() string {
	return "pickup_slots"
}

// Window converts the slot to its domain pickup window
func (s *PickupSlot) Window() domain.PickupWindow {
	return domain.PickupWindow{Date: s.SlotDate, Start: s.StartTime, End: s.EndTime}
}

// ============================================================
// Claims
// ============================================================

// Claim represents claims table. Claims are never deleted; cancellation
// and completion are terminal statuses so the audit trail survives.
type Claim struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	Reference       string             `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	PostID          uint               `gorm:"not null;index" json:"post_id"`
	ReceiverID      uint               `gorm:"not null;index" json:"receiver_id"`
	Status          domain.ClaimStatus `gorm:"size:15;default:'ACTIVE';index" json:"status"`
	ClaimedAt       time.Time          `gorm:"not null" json:"claimed_at"`
	PickupDate      time.Time          `gorm:"type:date;not null" json:"pickup_date"`
	PickupStart     string             `gorm:"size:10;not null" json:"pickup_start"`
	PickupEnd       string             `gorm:"size:10;not null" json:"pickup_end"`
	PickupCode      *string            `gorm:"size:10" json:"-"`
	CodeGeneratedAt *time.Time         `json:"code_generated_at,omitempty"`
	CodeExpiresAt   *time.Time         `json:"code_expires_at,omitempty"`
	PickedUpAt      *time.Time         `json:"picked_up_at,omitempty"`
	CreatedAt       time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	Post            SurplusPost        `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Receiver        User               `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

func (Claim) TableName() string {
	return "claims"
}

// Window returns the confirmed pickup window of the claim
func (c *Claim) Window() domain.PickupWindow {
	return domain.PickupWindow{Date: c.PickupDate, Start: c.PickupStart, End: c.PickupEnd}
}

// ============================================================
// Timeline
// ============================================================

// TimelineEntry represents timeline_entries table. Append-only:
// rows are never updated after creation.
type TimelineEntry struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	PostID         uint                 `gorm:"not null;index" json:"post_id"`
	EventType      domain.TimelineEvent `gorm:"size:20;not null" json:"event_type"`
	OccurredAt     time.Time            `gorm:"not null;index" json:"occurred_at"`
	ActorID        uint                 `json:"actor_id"`
	OldStatus      string               `gorm:"size:15" json:"old_status"`
	NewStatus      string               `gorm:"size:15" json:"new_status"`
	Details        string               `gorm:"size:500" json:"details"`
	VisibleToUsers bool                 `gorm:"default:true" json:"visible_to_users"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

func (TimelineEntry) TableName() string {
	return "timeline_entries"
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&SurplusPost{},
		&PickupSlot{},
		&Claim{},
		&TimelineEntry{},
	)
}
