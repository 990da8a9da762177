package routes

import (
	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/controllers"
)

// RealtimeRoutes sets up the real-time credential route.
func RealtimeRoutes(app *fiber.App, ctl *controllers.RealtimeController, protect fiber.Handler) {
	rt := app.Group("/api/v1/realtime", protect)

	rt.Post("/token", ctl.GetToken)
}
