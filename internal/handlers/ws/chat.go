package ws

import (
	"errors"

	"github.com/handwerkly/chat-backend/internal/service"
	"github.com/handwerkly/chat-backend/internal/validation"
)

// MessageChat is an outbound chat message from the client:
// {type:"chat_message", message, sender_id, client_id?}
type MessageChat struct {
	Message  string `json:"message"`
	SenderID uint   `json:"sender_id"`
	ClientID string `json:"client_id,omitempty"`
}

func (msg *MessageChat) GetType() string {
	return "chat_message"
}

func (msg *MessageChat) Process(ctx *MessageContext) error {
	// A sender_id that disagrees with the authenticated identity is
	// rejected, never silently corrected.
	if msg.SenderID != 0 && msg.SenderID != ctx.UserID {
		return SendError(ctx.Client, "sender_mismatch", "sender_id does not match authenticated user", "")
	}
	if !validation.ValidClientID(msg.ClientID) {
		return SendError(ctx.Client, "invalid_message", "Invalid client_id", "")
	}

	// SendMessage appends through the registry and publishes to the room's
	// subscribers, strictly in that order.
	_, err := ctx.ChatService.SendMessage(ctx.RoomID, ctx.UserID, msg.ClientID, msg.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			return SendError(ctx.Client, "empty_content", "Message content is empty", "")
		case errors.Is(err, service.ErrNotParticipant):
			return SendError(ctx.Client, "not_participant", "Not a participant of this chat room", "")
		case errors.Is(err, service.ErrRoomNotFound):
			return SendError(ctx.Client, "room_not_found", "Chat room not found", "")
		default:
			// Storage failure: the message is not stored, the client must
			// resend explicitly.
			return SendError(ctx.Client, "storage_unavailable", "Failed to store message, please resend", err.Error())
		}
	}
	return nil
}
