package controllers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/lib"
	"skillswap/backend/src/models"
	"skillswap/backend/src/store"
)

// UserController serves profile endpoints. Identity itself lives with the
// external provider; SyncUser mirrors its record into the users collection.
type UserController struct {
	users     store.UserStore
	jwtSecret string
}

func NewUserController(users store.UserStore, jwtSecret string) *UserController {
	return &UserController{users: users, jwtSecret: jwtSecret}
}

// SyncUser upserts the caller's profile from the identity provider. The user
// may not exist yet, so this verifies the token itself instead of going
// through Protect.
func (ctl *UserController) SyncUser(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if len(authHeader) <= 7 || authHeader[:7] != "Bearer " {
		return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - no token provided"))
	}

	claims, err := lib.VerifyJWT(authHeader[7:], ctl.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - invalid token"))
	}
	externalID, ok := claims["sub"].(string)
	if !ok || externalID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - invalid token"))
	}

	var body struct {
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Avatar   string `json:"avatar"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.FullName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Email and full name are required"))
	}

	saved, err := ctl.users.Upsert(c.Context(), &models.User{
		ExternalId: externalID,
		Email:      body.Email,
		FullName:   body.FullName,
		Avatar:     body.Avatar,
	})
	if err != nil {
		slog.Error("user sync failed", "externalId", externalID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.Status(fiber.StatusOK).JSON(saved)
}

// GetPublicProfile returns another user's public profile plus the viewer's
// connection status toward them.
func (ctl *UserController) GetPublicProfile(c *fiber.Ctx) error {
	ref := c.Params("id")

	target, err := ctl.users.Resolve(c.Context(), ref)
	if err != nil {
		if errors.Is(err, store.ErrInvalidID) {
			return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid user ID format"))
		}
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("User not found"))
		}
		slog.Error("profile lookup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	user := currentUser(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":             target.Dto(),
		"skillsTeaching":   target.SkillsTeaching,
		"skillsLearning":   target.SkillsLearning,
		"connectionStatus": user.StatusWith(target.Id),
	})
}

// UpdateProfile updates the authenticated user's own profile fields.
func (ctl *UserController) UpdateProfile(c *fiber.Ctx) error {
	var body struct {
		FullName       *string   `json:"fullName"`
		Avatar         *string   `json:"avatar"`
		Bio            *string   `json:"bio"`
		Location       *string   `json:"location"`
		SkillsTeaching *[]string `json:"skillsTeaching"`
		SkillsLearning *[]string `json:"skillsLearning"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}

	set := map[string]interface{}{}
	if body.FullName != nil {
		set["fullName"] = *body.FullName
	}
	if body.Avatar != nil {
		set["avatar"] = *body.Avatar
	}
	if body.Bio != nil {
		set["bio"] = *body.Bio
	}
	if body.Location != nil {
		set["location"] = *body.Location
	}
	if body.SkillsTeaching != nil {
		set["skillsTeaching"] = *body.SkillsTeaching
	}
	if body.SkillsLearning != nil {
		set["skillsLearning"] = *body.SkillsLearning
	}
	if len(set) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("No fields to update"))
	}

	user := currentUser(c)
	updated, err := ctl.users.UpdateProfile(c.Context(), user.Id, set)
	if err != nil {
		slog.Error("profile update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.Status(fiber.StatusOK).JSON(updated)
}

// GetSuggestedConnections returns users the authenticated user has no
// relation with yet.
func (ctl *UserController) GetSuggestedConnections(c *fiber.Ctx) error {
	user := currentUser(c)

	suggestions, err := ctl.users.Suggestions(c.Context(), &user, 10)
	if err != nil {
		slog.Error("suggestions failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	dtos := make([]models.UserDto, 0, len(suggestions))
	for i := range suggestions {
		dtos = append(dtos, suggestions[i].Dto())
	}
	return c.Status(fiber.StatusOK).JSON(dtos)
}
