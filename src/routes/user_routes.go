package routes

import (
	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/controllers"
)

// UserRoutes sets up profile routes for sync, suggestions, public profile,
// and profile update.
func UserRoutes(app *fiber.App, ctl *controllers.UserController, protect fiber.Handler) {
	user := app.Group("/api/v1/users")

	user.Post("/sync", ctl.SyncUser)
	user.Get("/suggestions", protect, ctl.GetSuggestedConnections)
	user.Put("/profile", protect, ctl.UpdateProfile)
	user.Get("/:id", protect, ctl.GetPublicProfile)
}
