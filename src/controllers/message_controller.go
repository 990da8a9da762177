package controllers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"skillswap/backend/src/lib"
	"skillswap/backend/src/models"
	"skillswap/backend/src/realtime"
	"skillswap/backend/src/store"
)

// MessageController serves direct-message threads. Messages are durable in
// the message store; the real-time copy on the hashed chat channel is
// best-effort only.
type MessageController struct {
	messages store.MessageStore
	users    store.UserStore
	fanout   *realtime.BestEffort
}

func NewMessageController(messages store.MessageStore, users store.UserStore, fanout *realtime.BestEffort) *MessageController {
	return &MessageController{messages: messages, users: users, fanout: fanout}
}

// GetInbox lists the authenticated user's conversations, newest first, with
// counterpart details.
func (ctl *MessageController) GetInbox(c *fiber.Ctx) error {
	user := currentUser(c)

	convos, err := ctl.messages.Conversations(c.Context(), user.ExternalId)
	if err != nil {
		slog.Error("inbox load failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	type inboxEntry struct {
		Id           string          `json:"id"`
		Other        *models.UserDto `json:"other,omitempty"`
		LastMessage  string          `json:"lastMessage"`
		LastSenderId string          `json:"lastSenderId,omitempty"`
		UpdatedAt    interface{}     `json:"updatedAt"`
	}

	entries := make([]inboxEntry, 0, len(convos))
	for i := range convos {
		convo := convos[i]
		entry := inboxEntry{
			Id:           convo.Id.Hex(),
			LastMessage:  convo.LastMessage,
			LastSenderId: convo.LastSenderId,
			UpdatedAt:    convo.UpdatedAt,
		}
		if other, err := ctl.users.FindByExternalID(c.Context(), convo.Other(user.ExternalId)); err == nil {
			dto := other.Dto()
			entry.Other = &dto
		}
		entries = append(entries, entry)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"conversations": entries,
	})
}

// GetThread returns (upserting if needed) the thread with another user, plus
// the real-time channel id the client should watch.
func (ctl *MessageController) GetThread(c *fiber.Ctx) error {
	user := currentUser(c)

	other, err := ctl.users.Resolve(c.Context(), c.Params("userId"))
	if err != nil {
		return resolveError(c, err)
	}

	convo, err := ctl.messages.UpsertConversation(c.Context(), user.ExternalId, other.ExternalId)
	if err != nil {
		slog.Error("conversation upsert failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	// Make sure the channel exists before the client starts watching it.
	channelID := realtime.ChatChannelID(user.ExternalId, other.ExternalId)
	ctl.fanout.EnsureChannel(c.Context(), channelID, []string{user.ExternalId, other.ExternalId})

	msgs, err := ctl.messages.Messages(c.Context(), convo.Id)
	if err != nil {
		slog.Error("thread load failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"conversationId": convo.Id.Hex(),
		"channelId":      channelID,
		"messages":       msgs,
	})
}

// SendMessage appends a message to the thread with another user and
// broadcasts it to the chat channel.
func (ctl *MessageController) SendMessage(c *fiber.Ctx) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}
	text := strings.TrimSpace(body.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Text is required"))
	}

	user := currentUser(c)
	other, err := ctl.users.Resolve(c.Context(), c.Params("userId"))
	if err != nil {
		return resolveError(c, err)
	}

	convo, err := ctl.messages.UpsertConversation(c.Context(), user.ExternalId, other.ExternalId)
	if err != nil {
		slog.Error("conversation upsert failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	msg, err := ctl.messages.Append(c.Context(), &models.Message{
		Conversation: convo.Id,
		SenderId:     user.ExternalId,
		RecipientId:  other.ExternalId,
		Text:         text,
	})
	if err != nil {
		slog.Error("message append failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Failed to send message"))
	}

	// Durable write is done; the live copy is fire-and-forget.
	ev := realtime.NewEvent(realtime.EventMessageNew, user.ExternalId, user.FullName, "")
	ctl.fanout.SendSystemMessage(c.Context(),
		realtime.ChatChannelID(user.ExternalId, other.ExternalId),
		[]string{user.ExternalId, other.ExternalId},
		text,
		ev,
	)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": msg,
	})
}

func resolveError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid user ID format"))
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("User not found"))
	default:
		slog.Error("user lookup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
}
