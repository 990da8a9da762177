package controllers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/connections"
	"skillswap/backend/src/lib"
	"skillswap/backend/src/models"
	"skillswap/backend/src/store"
)

// ConnectionController exposes the relationship protocol over HTTP.
type ConnectionController struct {
	svc   *connections.Service
	users store.UserStore
}

func NewConnectionController(svc *connections.Service, users store.UserStore) *ConnectionController {
	return &ConnectionController{svc: svc, users: users}
}

func currentUser(c *fiber.Ctx) models.User {
	return c.Locals("user").(models.User)
}

// connectionError maps protocol errors to HTTP responses. State conflicts are
// 400s checked before any mutation; unknown refs are 404s.
func connectionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid user ID format"))
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("User not found"))
	case errors.Is(err, connections.ErrSelfRequest):
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("You can't send a connection request to yourself"))
	case errors.Is(err, connections.ErrAlreadyConnected):
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("You are already connected with this user"))
	case errors.Is(err, connections.ErrRequestAlreadySent):
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Connection request already sent"))
	default:
		slog.Error("connection operation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
}

// SendConnectionRequest sends a connection request from the authenticated
// user to another user.
func (ctl *ConnectionController) SendConnectionRequest(c *fiber.Ctx) error {
	var body struct {
		TargetUserId string `json:"targetUserId"`
	}
	if err := c.BodyParser(&body); err != nil || body.TargetUserId == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Target user ID is required"))
	}

	user := currentUser(c)
	status, err := ctl.svc.Request(c.Context(), &user, body.TargetUserId)
	if err != nil {
		return connectionError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Connection request sent successfully",
		"status":  status,
	})
}

// AcceptConnectionRequest accepts a pending connection request and updates
// both users' connections.
func (ctl *ConnectionController) AcceptConnectionRequest(c *fiber.Ctx) error {
	var body struct {
		SenderId       string `json:"senderId"`
		NotificationId string `json:"notificationId"`
	}
	if err := c.BodyParser(&body); err != nil || body.SenderId == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Sender ID is required"))
	}

	user := currentUser(c)
	status, err := ctl.svc.Accept(c.Context(), &user, body.SenderId, body.NotificationId)
	if err != nil {
		return connectionError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Connection request accepted successfully",
		"status":  status,
	})
}

// WithdrawConnectionRequest withdraws a request the authenticated user sent.
func (ctl *ConnectionController) WithdrawConnectionRequest(c *fiber.Ctx) error {
	var body struct {
		TargetUserId string `json:"targetUserId"`
	}
	if err := c.BodyParser(&body); err != nil || body.TargetUserId == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Target user ID is required"))
	}

	user := currentUser(c)
	status, err := ctl.svc.Withdraw(c.Context(), &user, body.TargetUserId)
	if err != nil {
		return connectionError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Connection request withdrawn successfully",
		"status":  status,
	})
}

// GetConnectionStatus returns the connection status between the authenticated
// user and another user.
func (ctl *ConnectionController) GetConnectionStatus(c *fiber.Ctx) error {
	targetUserID := c.Query("targetUserId")
	if targetUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Target user ID is required"))
	}

	user := currentUser(c)
	status, err := ctl.svc.Status(c.Context(), &user, targetUserID)
	if err != nil {
		return connectionError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status,
	})
}

// GetUserConnections returns all users connected to the authenticated user.
func (ctl *ConnectionController) GetUserConnections(c *fiber.Ctx) error {
	user := currentUser(c)

	connected, err := ctl.users.FindByIDs(c.Context(), user.Connections)
	if err != nil {
		slog.Error("listing connections failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	dtos := make([]models.UserDto, 0, len(connected))
	for i := range connected {
		dtos = append(dtos, connected[i].Dto())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": dtos,
	})
}
