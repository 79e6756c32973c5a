package service

import (
	"sync"
	"time"

	"github.com/handwerkly/chat-backend/internal/models"
)

// Publisher is the broadcast side of the gateway. The hub implements it; the
// registry stays free of any transport import.
type Publisher interface {
	Publish(roomID uint, payload interface{})
}

// OutboundChatMessage is the canonical payload pushed to every room
// subscriber when a message is appended, regardless of which delivery path
// appended it.
type OutboundChatMessage struct {
	Type              string    `json:"type"`
	MessageID         uint      `json:"message_id"`
	Message           string    `json:"message"`
	SenderID          uint      `json:"sender_id"`
	SenderDisplayName string    `json:"sender_display_name"`
	Timestamp         time.Time `json:"timestamp"`
}

// SendMessage appends and then publishes. The per-room lock spans both
// steps, so subscribers receive messages in exactly the order they were
// durably appended; publish never happens before the append committed. A
// deduplicated resend returns the stored message without publishing again.
func (s *ChatService) SendMessage(roomID, senderID uint, clientID, content string) (*models.ChatMessage, error) {
	muIface, _ := s.sendLocks.LoadOrStore(roomID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	msg, stored, err := s.AppendMessage(roomID, senderID, clientID, content)
	if err != nil {
		return nil, err
	}

	if stored && s.publisher != nil {
		s.publisher.Publish(roomID, OutboundChatMessage{
			Type:              "chat_message",
			MessageID:         msg.ID,
			Message:           msg.Content,
			SenderID:          msg.SenderID,
			SenderDisplayName: s.SenderDisplayName(msg),
			Timestamp:         msg.CreatedAt,
		})
	}
	return msg, nil
}
