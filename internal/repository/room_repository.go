package repository

import (
	"github.com/handwerkly/chat-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// GetOrCreate returns the room for (jobID, customerID, tradespersonID),
// creating it if absent. The insert races against idx_room_job_pair with
// ON CONFLICT DO NOTHING, so concurrent callers all land on the winning row
// instead of seeing a duplicate-key error.
func (r *RoomRepository) GetOrCreate(jobID, customerID, tradespersonID uint) (*models.ChatRoom, bool, error) {
	room := &models.ChatRoom{
		JobID:          jobID,
		CustomerID:     customerID,
		TradespersonID: tradespersonID,
	}

	res := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "job_id"},
			{Name: "customer_id"},
			{Name: "tradesperson_id"},
		},
		DoNothing: true,
	}).Create(room)
	if res.Error != nil {
		return nil, false, res.Error
	}

	if res.RowsAffected == 1 {
		return room, true, nil
	}

	// Conflict: another caller created the room first. Read the winning row.
	var existing models.ChatRoom
	err := r.db.Where(
		"job_id = ? AND customer_id = ? AND tradesperson_id = ?",
		jobID, customerID, tradespersonID,
	).First(&existing).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *RoomRepository) FindByID(id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// MarkRead zeroes userID's unread counter and flips the read flag on every
// message in the room authored by the other participant. Both writes happen
// in one transaction so the counter never disagrees with the flags.
func (r *RoomRepository) MarkRead(roomID uint, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var room models.ChatRoom
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.ChatMessage{}).
			Where("room_id = ? AND sender_id <> ? AND is_read = false", roomID, userID).
			Update("is_read", true).Error; err != nil {
			return err
		}

		counter := "tradesperson_unread"
		if userID == room.CustomerID {
			counter = "customer_unread"
		}
		return tx.Model(&models.ChatRoom{}).Where("id = ?", roomID).
			UpdateColumn(counter, 0).Error
	})
}
