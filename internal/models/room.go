package models

import (
	"time"
)

// ChatRoom is the persistent channel between a customer and a tradesperson
// for one job. The composite unique index guarantees at most one room per
// (job, pair); concurrent get-or-create requests collapse onto the same row.
type ChatRoom struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt doubles as last-activity and drives room list ordering.
	UpdatedAt time.Time `json:"updated_at"`

	JobID          uint `gorm:"not null;uniqueIndex:idx_room_job_pair" json:"job_id"`
	CustomerID     uint `gorm:"not null;uniqueIndex:idx_room_job_pair;index" json:"customer_id"`
	TradespersonID uint `gorm:"not null;uniqueIndex:idx_room_job_pair;index" json:"tradesperson_id"`

	// One unread counter per participant, incremented when the other side
	// sends and reset by MarkRead.
	CustomerUnread     int64 `gorm:"not null;default:0" json:"customer_unread"`
	TradespersonUnread int64 `gorm:"not null;default:0" json:"tradesperson_unread"`

	LastMessageID *uint `json:"last_message_id"`
}

// IsParticipant reports whether userID is one of the room's two participants.
func (r *ChatRoom) IsParticipant(userID uint) bool {
	return userID == r.CustomerID || userID == r.TradespersonID
}

// Counterparty returns the other participant's id. Callers must have checked
// IsParticipant first.
func (r *ChatRoom) Counterparty(userID uint) uint {
	if userID == r.CustomerID {
		return r.TradespersonID
	}
	return r.CustomerID
}

// UnreadFor returns userID's own unread counter.
func (r *ChatRoom) UnreadFor(userID uint) int64 {
	if userID == r.CustomerID {
		return r.CustomerUnread
	}
	return r.TradespersonUnread
}

type ChatRoomResponse struct {
	ID             uint                `json:"id"`
	JobID          uint                `json:"job_id"`
	JobTitle       string              `json:"job_title"`
	CustomerID     uint                `json:"customer_id"`
	TradespersonID uint                `json:"tradesperson_id"`
	Counterparty   UserResponse        `json:"counterparty"`
	UnreadCount    int64               `json:"unread_count"`
	LastMessage    *LastMessagePreview `json:"last_message"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// LastMessagePreview is the cheap listing summary kept per room.
type LastMessagePreview struct {
	Content   string    `json:"content"`
	SenderID  uint      `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}
