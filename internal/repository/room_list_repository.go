package repository

import (
	"strings"
	"time"
)

// RoomListRow is a denormalized row representing one chat room in a user's
// room list: counterparty profile + job title + own unread count + last
// message preview.
//
// NOTE: This is deliberately not the full models shape to avoid a query per
// room (no N+1) and to keep payloads lean.
type RoomListRow struct {
	RoomID         uint      `gorm:"column:room_id"`
	JobID          uint      `gorm:"column:job_id"`
	JobTitle       string    `gorm:"column:job_title"`
	CustomerID     uint      `gorm:"column:customer_id"`
	TradespersonID uint      `gorm:"column:tradesperson_id"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	LastActivity   time.Time `gorm:"column:last_activity"`

	CounterpartyID       uint   `gorm:"column:counterparty_id"`
	CounterpartyUsername string `gorm:"column:counterparty_username"`
	CounterpartyFullName string `gorm:"column:counterparty_full_name"`
	CounterpartyRole     string `gorm:"column:counterparty_role"`

	UnreadCount int64 `gorm:"column:unread_count"`

	LastMessageID        *uint      `gorm:"column:last_message_id"`
	LastMessageSenderID  *uint      `gorm:"column:last_message_sender_id"`
	LastMessageContent   *string    `gorm:"column:last_message_content"`
	LastMessageCreatedAt *time.Time `gorm:"column:last_message_created_at"`
}

// ListForUser returns every room the user participates in, ordered by last
// activity descending (rooms without messages sort by creation time, since
// updated_at starts equal to created_at).
func (r *RoomRepository) ListForUser(userID uint) ([]RoomListRow, error) {
	query := strings.TrimSpace(`
SELECT
	cr.id AS room_id,
	cr.job_id,
	j.title AS job_title,
	cr.customer_id,
	cr.tradesperson_id,
	cr.created_at,
	cr.updated_at AS last_activity,
	cp.id AS counterparty_id,
	cp.username AS counterparty_username,
	cp.full_name AS counterparty_full_name,
	cp.role AS counterparty_role,
	CASE WHEN cr.customer_id = ? THEN cr.customer_unread ELSE cr.tradesperson_unread END AS unread_count,
	lm.id AS last_message_id,
	lm.sender_id AS last_message_sender_id,
	lm.content AS last_message_content,
	lm.created_at AS last_message_created_at
FROM chat_rooms cr
JOIN jobs j ON j.id = cr.job_id
JOIN users cp ON cp.id = CASE WHEN cr.customer_id = ? THEN cr.tradesperson_id ELSE cr.customer_id END
LEFT JOIN chat_messages lm ON lm.id = cr.last_message_id
WHERE cr.customer_id = ? OR cr.tradesperson_id = ?
ORDER BY cr.updated_at DESC, cr.id DESC
`)

	var rows []RoomListRow
	err := r.db.Raw(query, userID, userID, userID, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
