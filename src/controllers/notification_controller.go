package controllers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"skillswap/backend/src/lib"
	"skillswap/backend/src/models"
	"skillswap/backend/src/store"
)

// NotificationController serves the notification log.
type NotificationController struct {
	notifications store.NotificationStore
	users         store.UserStore
}

func NewNotificationController(notifications store.NotificationStore, users store.UserStore) *NotificationController {
	return &NotificationController{notifications: notifications, users: users}
}

// GetUserNotifications returns a page of the authenticated user's
// notifications with sender details, the unread count, and a hasMore flag.
func (ctl *NotificationController) GetUserNotifications(c *fiber.Ctx) error {
	user := currentUser(c)

	filter := models.NotificationFilter(c.Query("filter", string(models.FilterAll)))
	switch filter {
	case models.FilterAll, models.FilterRead, models.FilterUnread:
	default:
		filter = models.FilterAll
	}
	limit := int64(c.QueryInt("limit", 20))
	if limit <= 0 {
		limit = 20
	}
	skip := int64(c.QueryInt("skip", 0))
	if skip < 0 {
		skip = 0
	}

	page, hasMore, err := ctl.notifications.List(c.Context(), user.Id, filter, limit, skip)
	if err != nil {
		slog.Error("listing notifications failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	unreadCount, err := ctl.notifications.UnreadCount(c.Context(), user.Id)
	if err != nil {
		slog.Error("unread count failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	type notificationResponse struct {
		models.Notification
		SenderDetails *models.UserDto `json:"senderDetails,omitempty"`
	}

	response := make([]notificationResponse, 0, len(page))
	for _, n := range page {
		item := notificationResponse{Notification: n}
		if !n.Sender.IsZero() {
			sender, err := ctl.users.FindByID(c.Context(), n.Sender)
			if err == nil {
				dto := sender.Dto()
				item.SenderDetails = &dto
			} else if !errors.Is(err, store.ErrNotFound) {
				slog.Warn("loading notification sender failed", "sender", n.Sender.Hex(), "error", err)
			}
		}
		response = append(response, item)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"notifications": response,
		"unreadCount":   unreadCount,
		"hasMore":       hasMore,
	})
}

// MarkNotificationAsRead marks one notification, or all of them, as read.
func (ctl *NotificationController) MarkNotificationAsRead(c *fiber.Ctx) error {
	var body struct {
		NotificationId string `json:"notificationId"`
		MarkAllAsRead  bool   `json:"markAllAsRead"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}

	user := currentUser(c)

	if body.MarkAllAsRead {
		if _, err := ctl.notifications.MarkAllRead(c.Context(), user.Id); err != nil {
			slog.Error("mark all read failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
		}
		return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("All notifications marked as read"))
	}

	if body.NotificationId == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Notification ID or markAllAsRead flag is required"))
	}

	id, err := primitive.ObjectIDFromHex(body.NotificationId)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid notification ID format"))
	}

	if err := ctl.notifications.MarkRead(c.Context(), id, user.Id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Notification not found"))
		}
		slog.Error("mark read failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Notification marked as read"))
}

// DeleteNotification deletes one of the authenticated user's notifications.
func (ctl *NotificationController) DeleteNotification(c *fiber.Ctx) error {
	var body struct {
		NotificationId string `json:"notificationId"`
	}
	if err := c.BodyParser(&body); err != nil || body.NotificationId == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Notification ID is required"))
	}

	id, err := primitive.ObjectIDFromHex(body.NotificationId)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid notification ID format"))
	}

	user := currentUser(c)
	if err := ctl.notifications.Delete(c.Context(), id, user.Id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Notification not found"))
		}
		slog.Error("delete notification failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Notification deleted successfully"))
}
