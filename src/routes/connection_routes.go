package routes

import (
	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/controllers"
)

// ConnectionRoutes sets up the connection-request protocol routes.
func ConnectionRoutes(app *fiber.App, ctl *controllers.ConnectionController, protect fiber.Handler) {
	connection := app.Group("/api/v1/connections", protect)

	connection.Post("/", ctl.SendConnectionRequest)
	connection.Put("/", ctl.AcceptConnectionRequest)
	connection.Delete("/", ctl.WithdrawConnectionRequest)
	connection.Get("/status", ctl.GetConnectionStatus)
	connection.Get("/list", ctl.GetUserConnections)
}
