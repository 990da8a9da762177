package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/backend/src/connections"
	"skillswap/backend/src/controllers"
	"skillswap/backend/src/models"
	"skillswap/backend/src/realtime"
	"skillswap/backend/src/routes"
	"skillswap/backend/src/store"
)

// harness serves the API against in-memory stores. The auth middleware is
// replaced by a stub that resolves whatever external id actAs points at, so a
// test can issue requests as either side of a pair.
type harness struct {
	app    *fiber.App
	users  *store.MemoryUserStore
	notifs *store.MemoryNotificationStore
	actor  string
	alice  *models.User
	bob    *models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	users := store.NewMemoryUserStore()
	notifs := store.NewMemoryNotificationStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := connections.NewService(users, notifs, realtime.NewBestEffort(nil, log), log)

	h := &harness{
		app:    fiber.New(),
		users:  users,
		notifs: notifs,
		alice:  users.Put(&models.User{ExternalId: "user_alice", Email: "alice@example.com", FullName: "Alice Moran"}),
		bob:    users.Put(&models.User{ExternalId: "user_bob", Email: "bob@example.com", FullName: "Bob Tanaka"}),
	}
	h.actor = "user_alice"

	protect := func(c *fiber.Ctx) error {
		u, err := users.FindByExternalID(c.Context(), h.actor)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals("user", *u)
		return c.Next()
	}

	routes.ConnectionRoutes(h.app, controllers.NewConnectionController(svc, users), protect)
	routes.NotificationRoutes(h.app, controllers.NewNotificationController(notifs, users), protect)

	return h
}

func (h *harness) actAs(externalID string) { h.actor = externalID }

func (h *harness) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
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

	resp, err := h.app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestSendConnectionRequestEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "request_sent", body["status"])
	assert.Equal(t, "Connection request sent successfully", body["message"])

	resp, _ = h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSendConnectionRequestValidation(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Target user ID is required", body["message"])

	resp, body = h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": "not-a-valid-id"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid user ID format", body["message"])

	resp, body = h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": "user_nobody"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body["message"])

	resp, body = h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.alice.Id.Hex()})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You can't send a connection request to yourself", body["message"])
}

func TestAcceptAndStatusEndpoints(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	h.actAs("user_bob")
	resp, body := h.do(t, fiber.MethodGet, "/api/v1/connections/status?targetUserId="+h.alice.Id.Hex(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "request_received", body["status"])

	resp, body = h.do(t, fiber.MethodPut, "/api/v1/connections/", fiber.Map{"senderId": h.alice.Id.Hex()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "connected", body["status"])

	h.actAs("user_alice")
	resp, body = h.do(t, fiber.MethodGet, "/api/v1/connections/status?targetUserId="+h.bob.Id.Hex(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "connected", body["status"])

	resp, body = h.do(t, fiber.MethodGet, "/api/v1/connections/list", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	users, ok := body["users"].([]interface{})
	require.True(t, ok)
	require.Len(t, users, 1)
	connected, ok := users[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Bob Tanaka", connected["fullName"])
}

func TestWithdrawEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := h.do(t, fiber.MethodDelete, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "not_connected", body["status"])

	// Withdrawing with nothing pending still succeeds.
	resp, body = h.do(t, fiber.MethodDelete, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "not_connected", body["status"])
}

func TestGetNotificationsEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	h.actAs("user_bob")
	resp, body := h.do(t, fiber.MethodGet, "/api/v1/notifications/?filter=unread", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["unreadCount"])
	assert.Equal(t, false, body["hasMore"])

	list, ok := body["notifications"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	first, ok := list[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connection_request", first["type"])

	sender, ok := first["senderDetails"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Alice Moran", sender["fullName"])
}

func TestMarkNotificationAsReadEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	h.actAs("user_bob")
	resp, body := h.do(t, fiber.MethodPut, "/api/v1/notifications/", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Notification ID or markAllAsRead flag is required", body["message"])

	resp, body = h.do(t, fiber.MethodGet, "/api/v1/notifications/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := body["notifications"].([]interface{})
	id := list[0].(map[string]interface{})["_id"].(string)

	resp, _ = h.do(t, fiber.MethodPut, "/api/v1/notifications/", fiber.Map{"notificationId": id})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Marking again is idempotent.
	resp, _ = h.do(t, fiber.MethodPut, "/api/v1/notifications/", fiber.Map{"notificationId": id})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = h.do(t, fiber.MethodGet, "/api/v1/notifications/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["unreadCount"])

	resp, _ = h.do(t, fiber.MethodPut, "/api/v1/notifications/", fiber.Map{"notificationId": "beef"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMarkAllNotificationsAsReadEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	h.actAs("user_bob")
	resp, _ = h.do(t, fiber.MethodPut, "/api/v1/notifications/", fiber.Map{"markAllAsRead": true})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := h.do(t, fiber.MethodGet, "/api/v1/notifications/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["unreadCount"])
}

func TestDeleteNotificationEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, fiber.MethodPost, "/api/v1/connections/", fiber.Map{"targetUserId": h.bob.Id.Hex()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	h.actAs("user_bob")
	resp, body := h.do(t, fiber.MethodGet, "/api/v1/notifications/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := body["notifications"].([]interface{})
	id := list[0].(map[string]interface{})["_id"].(string)

	resp, _ = h.do(t, fiber.MethodDelete, "/api/v1/notifications/", fiber.Map{"notificationId": id})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = h.do(t, fiber.MethodDelete, "/api/v1/notifications/", fiber.Map{"notificationId": id})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Notification not found", body["message"])
}
