package models

import (
	"time"
)

// ChatMessage is one immutable unit of chat content. Seq is assigned by the
// store, strictly increasing per room, so (created_at, seq) is a total order
// and ascending range scans per room walk idx_room_seq.
type ChatMessage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RoomID uint `gorm:"not null;uniqueIndex:idx_room_seq;uniqueIndex:idx_room_client_sender;index" json:"room_id"`
	Seq    uint `gorm:"not null;uniqueIndex:idx_room_seq" json:"seq"`

	SenderID uint `gorm:"not null;uniqueIndex:idx_room_client_sender;index" json:"sender_id"`
	Sender   User `gorm:"foreignKey:SenderID" json:"sender"`

	// ClientID deduplicates resends over flaky connections: client-supplied
	// UUID, or server-generated when the client sends none. Unique together
	// with the room and sender, so reusing an id in another room is a
	// separate message.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_room_client_sender;not null" json:"client_id"`

	Content string `gorm:"type:text;not null" json:"content"`

	// IsRead is scoped to the non-sender participant and only ever
	// transitions false -> true.
	IsRead bool `gorm:"not null;default:false" json:"is_read"`
}

type ChatMessageResponse struct {
	ID        uint         `json:"id"`
	RoomID    uint         `json:"room_id"`
	Seq       uint         `json:"seq"`
	SenderID  uint         `json:"sender_id"`
	Sender    UserResponse `json:"sender"`
	ClientID  string       `json:"client_id,omitempty"`
	Content   string       `json:"content"`
	IsRead    bool         `json:"is_read"`
	CreatedAt time.Time    `json:"created_at"`
}

func (m *ChatMessage) ToResponse() ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Seq:       m.Seq,
		SenderID:  m.SenderID,
		Sender:    m.Sender.ToResponse(),
		ClientID:  m.ClientID,
		Content:   m.Content,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}
