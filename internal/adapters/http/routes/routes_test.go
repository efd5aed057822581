package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"surplushub/internal/adapters/persistence/models"
	"surplushub/internal/config"
	"surplushub/internal/pkg/jwt"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gofiber/fiber/v2"
)

const testSecret = "test_secret"

func testConfig() *config.Config {
	cfg := &config.Config{
		AppMode: "dev",
		Port:    "3000",
		JWT: config.JWTConfig{
			Secret:          testSecret,
			AccessTokenMins: 15,
		},
		Pickup: config.PickupConfig{
			EarlyToleranceMinutes: 15,
			LateToleranceMinutes:  30,
			CodeTTLMinutes:        15,
		},
	}
	config.AppConfig = cfg
	return cfg
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))

	app := fiber.New()
	Setup(app, db, testConfig())
	return app, db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username: name,
		Email:    name + "@test.local",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(user.ID, user.Username, user.Role, testSecret, 15)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestWorkflowEndpoints(t *testing.T) {
	app, db := newTestApp(t)
	donor := createUser(t, db, "bakery", "DONOR")
	receiver := createUser(t, db, "foodbank", "RECEIVER")
	donorToken := tokenFor(t, donor)
	receiverToken := tokenFor(t, receiver)

	// Requests without a token are rejected
	resp, _ := doJSON(t, app, "GET", "/api/v1/posts/", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Donor creates a post with a slot tomorrow
	tomorrow := time.Now().Add(24 * time.Hour)
	resp, body := doJSON(t, app, "POST", "/api/v1/posts/", donorToken, fiber.Map{
		"categories":      []string{"BAKERY"},
		"quantity":        12,
		"unit":            "kg",
		"pickup_location": "Rear dock",
		"expiry_date":     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"slots": []fiber.Map{
			{"date": tomorrow.Format("2006-01-02"), "start_time": "10:00", "end_time": "12:00"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	post := data["post"].(map[string]interface{})
	postID := uint(post["id"].(float64))
	slots := post["slots"].([]interface{})
	slotID := uint(slots[0].(map[string]interface{})["id"].(float64))

	// Receiver sees it listed and claims the slot
	resp, body = doJSON(t, app, "GET", "/api/v1/posts/", receiverToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	posts := body["data"].(map[string]interface{})["posts"].([]interface{})
	require.Len(t, posts, 1)

	resp, body = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/posts/%d/claim", postID), receiverToken, fiber.Map{
		"slot_id": slotID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	claimData := body["data"].(map[string]interface{})
	claimID := uint(claimData["claim_id"].(float64))
	require.Equal(t, "ACTIVE", claimData["status"])

	// A second claim on the same post conflicts
	resp, body = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/posts/%d/claim", postID), receiverToken, fiber.Map{
		"slot_id": slotID,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, false, body["success"])

	// Donor requests a pickup code
	resp, body = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/claims/%d/code", claimID), donorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	codeData := body["data"].(map[string]interface{})
	require.Len(t, codeData["code"].(string), 6)

	// Confirming now is outside tomorrow's window
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/claims/%d/confirm", claimID), donorToken, fiber.Map{
		"code": codeData["code"].(string),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Timeline is visible to the parties; the code issuance entry is not
	resp, body = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/posts/%d/timeline", postID), receiverToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	timeline := body["data"].(map[string]interface{})["timeline"].([]interface{})
	require.Len(t, timeline, 1)
	require.Equal(t, "CLAIMED", timeline[0].(map[string]interface{})["event_type"])

	// Receiver cancels; the post reopens
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/claims/%d/cancel", claimID), receiverToken, fiber.Map{
		"reason": "van broke down",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/posts/%d", postID), receiverToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := body["data"].(map[string]interface{})["post"].(map[string]interface{})
	require.Equal(t, "AVAILABLE", got["status"])
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	app, db := newTestApp(t)
	donor := createUser(t, db, "bakery", "DONOR")
	admin := createUser(t, db, "ops", "ADMIN")
	donorToken := tokenFor(t, donor)
	adminToken := tokenFor(t, admin)

	tomorrow := time.Now().Add(24 * time.Hour)
	resp, body := doJSON(t, app, "POST", "/api/v1/posts/", donorToken, fiber.Map{
		"quantity":        5,
		"unit":            "kg",
		"pickup_location": "Dock A",
		"expiry_date":     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"slots": []fiber.Map{
			{"date": tomorrow.Format("2006-01-02"), "start_time": "10:00", "end_time": "12:00"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := body["data"].(map[string]interface{})["post"].(map[string]interface{})
	postID := uint(post["id"].(float64))

	// Non-admins are rejected by the role middleware
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/admin/posts/%d/status", postID), donorToken, fiber.Map{
		"status": "CANCELLED",
		"reason": "spam",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin override works and rejects unknown statuses
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/admin/posts/%d/status", postID), adminToken, fiber.Map{
		"status": "DELETED",
		"reason": "spam",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/admin/posts/%d/status", postID), adminToken, fiber.Map{
		"status": "CANCELLED",
		"reason": "duplicate listing",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "CANCELLED", body["data"].(map[string]interface{})["status"])

	// Flag and unflag
	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/v1/admin/posts/%d/flag", postID), adminToken, fiber.Map{
		"reason": "reported by users",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/v1/admin/posts/%d/flag", postID), adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
