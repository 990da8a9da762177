package routes

import (
	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/controllers"
)

// NotificationRoutes sets up notification-log routes for listing, marking as
// read, and deleting notifications.
func NotificationRoutes(app *fiber.App, ctl *controllers.NotificationController, protect fiber.Handler) {
	notification := app.Group("/api/v1/notifications", protect)

	notification.Get("/", ctl.GetUserNotifications)
	notification.Put("/", ctl.MarkNotificationAsRead)
	notification.Delete("/", ctl.DeleteNotification)
}
