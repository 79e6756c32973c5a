package repository

import (
	"time"

	"github.com/handwerkly/chat-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append durably stores a message and updates the room's derived state in a
// single transaction: the room row is locked, the next per-room sequence
// number is assigned, the counterparty's unread counter is bumped and the
// last-message summary is refreshed. The row lock serializes appends per
// room, which is what makes the (created_at, seq) order trustworthy.
func (r *MessageRepository) Append(roomID, senderID uint, clientID, content string) (*models.ChatMessage, error) {
	var created models.ChatMessage

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var room models.ChatRoom
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
			return err
		}

		var nextSeq uint
		if err := tx.Raw(
			"SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE room_id = ?",
			roomID,
		).Scan(&nextSeq).Error; err != nil {
			return err
		}

		msg := models.ChatMessage{
			RoomID:   roomID,
			Seq:      nextSeq,
			SenderID: senderID,
			ClientID: clientID,
			Content:  content,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"last_message_id": msg.ID,
			"updated_at":      time.Now(),
		}
		if senderID == room.CustomerID {
			updates["tradesperson_unread"] = gorm.Expr("tradesperson_unread + 1")
		} else {
			updates["customer_unread"] = gorm.Expr("customer_unread + 1")
		}
		if err := tx.Model(&models.ChatRoom{}).Where("id = ?", roomID).Updates(updates).Error; err != nil {
			return err
		}

		created = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Load sender profile for the outbound payload.
	return r.FindByID(created.ID)
}

func (r *MessageRepository) FindByID(id uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.Preload("Sender").First(&msg, id).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepository) FindByClientID(roomID uint, clientID string, senderID uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.Preload("Sender").
		Where("room_id = ? AND client_id = ? AND sender_id = ?", roomID, clientID, senderID).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByRoom returns the room's messages in delivery order (ascending seq,
// walking idx_room_seq).
func (r *MessageRepository) ListByRoom(roomID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Preload("Sender").
		Where("room_id = ?", roomID).
		Order("seq ASC").
		Find(&messages).Error
	return messages, err
}
