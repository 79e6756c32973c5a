package models

import (
	"time"
)

// Job is owned by the platform's job service. The chat backend reads it to
// resolve the customer side of a room and the job title shown in room
// summaries.
type Job struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title      string `gorm:"not null" json:"title"`
	CustomerID uint   `gorm:"not null;index" json:"customer_id"`
}
