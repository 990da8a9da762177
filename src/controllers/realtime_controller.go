package controllers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/lib"
	"skillswap/backend/src/realtime"
)

// RealtimeController mints connection credentials for the real-time service.
type RealtimeController struct {
	jwtSecret string
	url       string
}

func NewRealtimeController(jwtSecret, url string) *RealtimeController {
	return &RealtimeController{jwtSecret: jwtSecret, url: url}
}

// GetToken issues a short-lived token the client uses to subscribe to its
// own channels. The response carries the connection URL and the personal
// channel id so the client needs no derivation logic of its own.
func (ctl *RealtimeController) GetToken(c *fiber.Ctx) error {
	user := currentUser(c)

	token, err := lib.GenerateJWT(user.ExternalId, ctl.jwtSecret)
	if err != nil {
		slog.Error("realtime token mint failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token":   token,
		"url":     ctl.url,
		"userId":  user.ExternalId,
		"channel": realtime.PersonalChannelID(user.ExternalId),
	})
}
