package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/handwerkly/chat-backend/internal/httpx"
	"github.com/handwerkly/chat-backend/internal/models"
	"github.com/handwerkly/chat-backend/internal/repository"
	"github.com/handwerkly/chat-backend/internal/service"
)

// RoomHandler is the delivery fallback: the same registry operations the
// live path uses, exposed over request/response for clients without an open
// connection.
type RoomHandler struct {
	chatService *service.ChatService
}

func NewRoomHandler(chatService *service.ChatService) *RoomHandler {
	return &RoomHandler{chatService: chatService}
}

func chatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyContent):
		return httpx.BadRequest(c, "empty_content", "Message content is empty")
	case errors.Is(err, service.ErrSamePair):
		return httpx.BadRequest(c, "same_pair", "Cannot open a chat room with yourself")
	case errors.Is(err, service.ErrNotParticipant):
		return httpx.Forbidden(c, "not_participant", "Not a participant of this chat room")
	case errors.Is(err, service.ErrRoomNotFound):
		return httpx.NotFound(c, "room_not_found", "Chat room not found")
	case errors.Is(err, service.ErrJobNotFound):
		return httpx.NotFound(c, "job_not_found", "Job not found")
	default:
		return httpx.Unavailable(c, "storage_unavailable")
	}
}

func roomIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// GetRooms lists the caller's rooms ordered by last activity.
func (h *RoomHandler) GetRooms(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	rows, err := h.chatService.ListRooms(userID)
	if err != nil {
		return chatError(c, err)
	}

	summaries := make([]models.ChatRoomResponse, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, toRoomSummary(row))
	}

	return c.JSON(fiber.Map{
		"rooms": summaries,
		"count": len(summaries),
	})
}

type getOrCreateInput struct {
	JobID          uint `json:"job_id"`
	CounterpartyID uint `json:"counterparty_id"`
}

// GetOrCreateRoom is idempotent: repeated calls with the same arguments
// return the same room. 201 only when this call created it.
func (h *RoomHandler) GetOrCreateRoom(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input getOrCreateInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.JobID == 0 || input.CounterpartyID == 0 {
		return httpx.BadRequest(c, "missing_fields", "job_id and counterparty_id are required")
	}

	room, created, err := h.chatService.GetOrCreateRoom(input.JobID, userID, input.CounterpartyID)
	if err != nil {
		return chatError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(room)
}

// GetMessages returns the room's history in delivery order.
func (h *RoomHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	roomID, err := roomIDParam(c)
	if err != nil {
		return httpx.BadRequest(c, "invalid_room_id", "Invalid room id")
	}

	messages, err := h.chatService.ListMessages(roomID, userID)
	if err != nil {
		return chatError(c, err)
	}

	responses := make([]models.ChatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, msg.ToResponse())
	}

	return c.JSON(fiber.Map{
		"messages": responses,
		"count":    len(responses),
	})
}

// MarkRead zeroes the caller's unread counter. Idempotent.
func (h *RoomHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	roomID, err := roomIDParam(c)
	if err != nil {
		return httpx.BadRequest(c, "invalid_room_id", "Invalid room id")
	}

	if err := h.chatService.MarkRead(roomID, userID); err != nil {
		return chatError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func toRoomSummary(row repository.RoomListRow) models.ChatRoomResponse {
	resp := models.ChatRoomResponse{
		ID:             row.RoomID,
		JobID:          row.JobID,
		JobTitle:       row.JobTitle,
		CustomerID:     row.CustomerID,
		TradespersonID: row.TradespersonID,
		Counterparty: models.UserResponse{
			ID:       row.CounterpartyID,
			Username: row.CounterpartyUsername,
			FullName: row.CounterpartyFullName,
			Role:     row.CounterpartyRole,
		},
		UnreadCount: row.UnreadCount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.LastActivity,
	}
	if row.LastMessageID != nil && row.LastMessageContent != nil {
		resp.LastMessage = &models.LastMessagePreview{
			Content:   *row.LastMessageContent,
			SenderID:  *row.LastMessageSenderID,
			CreatedAt: *row.LastMessageCreatedAt,
		}
	}
	return resp
}
