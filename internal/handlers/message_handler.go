package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/handwerkly/chat-backend/internal/httpx"
	"github.com/handwerkly/chat-backend/internal/service"
	"github.com/handwerkly/chat-backend/internal/validation"
)

// MessageHandler sends messages on the fallback path. SendMessage goes
// through the same registry operation as the live path, including the hub
// publish, so subscribers with an open connection still see the message in
// real time.
type MessageHandler struct {
	chatService *service.ChatService
}

func NewMessageHandler(chatService *service.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

type sendMessageInput struct {
	Content  string `json:"content"`
	ClientID string `json:"client_id"`
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	roomID, err := roomIDParam(c)
	if err != nil {
		return httpx.BadRequest(c, "invalid_room_id", "Invalid room id")
	}

	var input sendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if !validation.ValidClientID(input.ClientID) {
		return httpx.BadRequest(c, "invalid_client_id", "Invalid client_id")
	}

	message, err := h.chatService.SendMessage(roomID, userID, input.ClientID, input.Content)
	if err != nil {
		return chatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}
