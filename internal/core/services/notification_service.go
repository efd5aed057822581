package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// Notifier is informed of workflow events. Delivery is fire-and-forget:
// a failed notification never rolls back the transition that caused it.
type Notifier interface {
	NotifyClaimed(postID, claimID, receiverID uint)
	NotifyCodeGenerated(postID, claimID uint, expiresAt time.Time)
	NotifyPickupConfirmed(postID, claimID uint)
	NotifyCancelled(postID, claimID uint, reason string)
}

// NotificationService posts workflow events to a webhook
type NotificationService struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewNotificationService creates a notification service from NOTIFY_WEBHOOK_URL.
// With no URL configured, notifications are silently skipped.
func NewNotificationService() *NotificationService {
	url := os.Getenv("NOTIFY_WEBHOOK_URL")
	return &NotificationService{
		webhookURL: url,
		enabled:    url != "",
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

func (s *NotificationService) send(event string, payload map[string]interface{}) {
	if !s.enabled {
		return
	}
	payload["event"] = event

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("⚠️ Notify %s failed: %v", event, err)
		return
	}
	defer resp.Body.Close()
}

// NotifyClaimed announces a new claim on a post
func (s *NotificationService) NotifyClaimed(postID, claimID, receiverID uint) {
	s.send("CLAIMED", map[string]interface{}{
		"post_id":     postID,
		"claim_id":    claimID,
		"receiver_id": receiverID,
	})
}

// NotifyCodeGenerated announces a fresh pickup code (never the code itself)
func (s *NotificationService) NotifyCodeGenerated(postID, claimID uint, expiresAt time.Time) {
	s.send("OTP_GENERATED", map[string]interface{}{
		"post_id":    postID,
		"claim_id":   claimID,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// NotifyPickupConfirmed announces a completed handover
func (s *NotificationService) NotifyPickupConfirmed(postID, claimID uint) {
	s.send("PICKUP_CONFIRMED", map[string]interface{}{
		"post_id":  postID,
		"claim_id": claimID,
	})
}

// NotifyCancelled announces a cancelled claim
func (s *NotificationService) NotifyCancelled(postID, claimID uint, reason string) {
	s.send("CANCELLED", map[string]interface{}{
		"post_id":  postID,
		"claim_id": claimID,
		"reason":   fmt.Sprintf("%.200s", reason),
	})
}
