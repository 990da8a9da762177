package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/lib"
	"skillswap/backend/src/store"
)

// Protect returns a middleware that checks for a valid bearer token, resolves
// the identity-provider subject to the user document, and attaches it to the
// request context.
func Protect(users store.UserStore, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - no token provided"))
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - invalid token format"))
		}

		claims, err := lib.VerifyJWT(token, jwtSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - invalid token"))
		}

		externalID, ok := claims["sub"].(string)
		if !ok || externalID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - invalid token"))
		}

		user, err := users.FindByExternalID(c.Context(), externalID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("User not found"))
		}

		c.Locals("user", *user)

		return c.Next()
	}
}
