package repository

import (
	"github.com/handwerkly/chat-backend/internal/models"
)

// RoomRepositoryInterface defines the contract for chat room operations
type RoomRepositoryInterface interface {
	GetOrCreate(jobID, customerID, tradespersonID uint) (*models.ChatRoom, bool, error)
	FindByID(id uint) (*models.ChatRoom, error)
	ListForUser(userID uint) ([]RoomListRow, error)
	MarkRead(roomID uint, userID uint) error
}

// MessageRepositoryInterface defines the contract for chat message operations
type MessageRepositoryInterface interface {
	Append(roomID, senderID uint, clientID, content string) (*models.ChatMessage, error)
	FindByID(id uint) (*models.ChatMessage, error)
	FindByClientID(roomID uint, clientID string, senderID uint) (*models.ChatMessage, error)
	ListByRoom(roomID uint) ([]models.ChatMessage, error)
}

// UserRepositoryInterface defines the contract for user lookups
type UserRepositoryInterface interface {
	FindByID(id uint) (*models.User, error)
}

// JobRepositoryInterface defines the contract for job lookups
type JobRepositoryInterface interface {
	FindByID(id uint) (*models.Job, error)
}
