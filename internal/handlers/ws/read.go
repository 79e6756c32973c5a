package ws

import (
	"errors"

	"github.com/handwerkly/chat-backend/internal/service"
)

// MessageRead marks the room read for the authenticated user:
// {type:"mark_read"}
type MessageRead struct {
}

func (msg *MessageRead) GetType() string {
	return "mark_read"
}

func (msg *MessageRead) Process(ctx *MessageContext) error {
	if err := ctx.ChatService.MarkRead(ctx.RoomID, ctx.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotParticipant):
			return SendError(ctx.Client, "not_participant", "Not a participant of this chat room", "")
		case errors.Is(err, service.ErrRoomNotFound):
			return SendError(ctx.Client, "room_not_found", "Chat room not found", "")
		default:
			return SendError(ctx.Client, "storage_unavailable", "Failed to mark room read", err.Error())
		}
	}

	return ctx.Client.SendJSON(map[string]interface{}{
		"type":    "read_ack",
		"room_id": ctx.RoomID,
	})
}
