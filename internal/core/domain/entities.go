package domain

import (
	"fmt"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RoleDonor    Role = "DONOR"
	RoleReceiver Role = "RECEIVER"
	RoleAdmin    Role = "ADMIN"
)

// ============================================================
// Post & Claim statuses
// ============================================================

// PostStatus is the lifecycle status of a surplus post
type PostStatus string

const (
	PostAvailable PostStatus = "AVAILABLE"
	PostClaimed   PostStatus = "CLAIMED"
	PostCompleted PostStatus = "COMPLETED"
	PostCancelled PostStatus = "CANCELLED"
	PostExpired   PostStatus = "EXPIRED"
)

// ParsePostStatus validates a status value at the boundary.
// Unknown values are rejected here, not deep in business logic.
func ParsePostStatus(s string) (PostStatus, error) {
	switch PostStatus(s) {
	case PostAvailable, PostClaimed, PostCompleted, PostCancelled, PostExpired:
		return PostStatus(s), nil
	}
	return "", ErrInvalidStatus
}

// IsTerminal reports whether normal workflow transitions can no longer leave this status
func (s PostStatus) IsTerminal() bool {
	return s == PostCompleted || s == PostCancelled || s == PostExpired
}

// ClaimStatus is the lifecycle status of a claim
type ClaimStatus string

const (
	ClaimActive    ClaimStatus = "ACTIVE"
	ClaimCancelled ClaimStatus = "CANCELLED"
	ClaimCompleted ClaimStatus = "COMPLETED"
)

// ============================================================
// Timeline events
// ============================================================

// TimelineEvent is the type of an audit timeline entry
type TimelineEvent string

const (
	EventClaimed         TimelineEvent = "CLAIMED"
	EventOTPGenerated    TimelineEvent = "OTP_GENERATED"
	EventPickupConfirmed TimelineEvent = "PICKUP_CONFIRMED"
	EventCancelled       TimelineEvent = "CANCELLED"
	EventExpired         TimelineEvent = "EXPIRED"
	EventAdminOverride   TimelineEvent = "ADMIN_OVERRIDE"
	EventFlagged         TimelineEvent = "FLAGGED"
)

// SystemActorID marks timeline entries written by background jobs
const SystemActorID uint = 0

// ============================================================
// Pickup window arithmetic
// ============================================================

// clockLayout is the wall-clock format used for slot times
const clockLayout = "15:04"

// PickupWindow is a confirmed pickup slot: a calendar date plus
// wall-clock start/end in "15:04" format, interpreted in the
// location of the date value.
type PickupWindow struct {
	Date  time.Time
	Start string
	End   string
}

// ParseClockTime parses a "HH:MM" wall-clock value into an offset from midnight
func ParseClockTime(s string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// StartAt returns the absolute start of the window
func (w PickupWindow) StartAt() (time.Time, error) {
	d, err := ParseClockTime(w.Start)
	if err != nil {
		return time.Time{}, err
	}
	return w.dayStart().Add(d), nil
}

// EndAt returns the absolute end of the window
func (w PickupWindow) EndAt() (time.Time, error) {
	d, err := ParseClockTime(w.End)
	if err != nil {
		return time.Time{}, err
	}
	return w.dayStart().Add(d), nil
}

func (w PickupWindow) dayStart() time.Time {
	y, m, d := w.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, w.Date.Location())
}

// Validate checks the window is well formed and ends after it starts
func (w PickupWindow) Validate() error {
	start, err := w.StartAt()
	if err != nil {
		return ErrInvalidPickupSlot
	}
	end, err := w.EndAt()
	if err != nil {
		return ErrInvalidPickupSlot
	}
	if !end.After(start) {
		return ErrInvalidPickupSlot
	}
	return nil
}

// Contains reports whether now falls inside the window widened by the
// early/late tolerances: [start - early, end + late]
func (w PickupWindow) Contains(now time.Time, early, late time.Duration) (bool, error) {
	start, err := w.StartAt()
	if err != nil {
		return false, err
	}
	end, err := w.EndAt()
	if err != nil {
		return false, err
	}
	if now.Before(start.Add(-early)) {
		return false, nil
	}
	if now.After(end.Add(late)) {
		return false, nil
	}
	return true, nil
}

// Deadline returns the instant after which an unconfirmed pickup is overdue
func (w PickupWindow) Deadline(late time.Duration) (time.Time, error) {
	end, err := w.EndAt()
	if err != nil {
		return time.Time{}, err
	}
	return end.Add(late), nil
}
