package routes

import (
	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/controllers"
)

// MessageRoutes sets up direct-message routes for the inbox and per-user
// threads.
func MessageRoutes(app *fiber.App, ctl *controllers.MessageController, protect fiber.Handler) {
	message := app.Group("/api/v1/messages", protect)

	message.Get("/inbox", ctl.GetInbox)
	message.Get("/with/:userId", ctl.GetThread)
	message.Post("/with/:userId", ctl.SendMessage)
}
