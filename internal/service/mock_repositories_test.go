package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/handwerkly/chat-backend/internal/models"
	"github.com/handwerkly/chat-backend/internal/repository"
	"gorm.io/gorm"
)

// In-memory mocks implementing the repository interfaces, mirroring the real
// transactional semantics (atomic get-or-create, per-room sequence numbers,
// unread counters) closely enough to exercise the service invariants.

type pairKey struct {
	JobID          uint
	CustomerID     uint
	TradespersonID uint
}

type MockRoomRepository struct {
	mu       sync.Mutex
	rooms    map[uint]*models.ChatRoom
	byKey    map[pairKey]uint
	nextID   uint
	messages *MockMessageRepository

	// failReads injects transient storage errors into FindByID.
	failReads int
}

func NewMockRoomRepository() *MockRoomRepository {
	return &MockRoomRepository{
		rooms:  make(map[uint]*models.ChatRoom),
		byKey:  make(map[pairKey]uint),
		nextID: 1,
	}
}

func (m *MockRoomRepository) GetOrCreate(jobID, customerID, tradespersonID uint) (*models.ChatRoom, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{jobID, customerID, tradespersonID}
	if id, ok := m.byKey[key]; ok {
		room := *m.rooms[id]
		return &room, false, nil
	}

	now := time.Now()
	room := &models.ChatRoom{
		ID:             m.nextID,
		JobID:          jobID,
		CustomerID:     customerID,
		TradespersonID: tradespersonID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.nextID++
	m.rooms[room.ID] = room
	m.byKey[key] = room.ID

	copied := *room
	return &copied, true, nil
}

func (m *MockRoomRepository) FindByID(id uint) (*models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failReads > 0 {
		m.failReads--
		return nil, errors.New("connection refused")
	}

	room, ok := m.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *room
	return &copied, nil
}

func (m *MockRoomRepository) ListForUser(userID uint) ([]repository.RoomListRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []repository.RoomListRow
	for _, room := range m.rooms {
		if !room.IsParticipant(userID) {
			continue
		}
		row := repository.RoomListRow{
			RoomID:         room.ID,
			JobID:          room.JobID,
			CustomerID:     room.CustomerID,
			TradespersonID: room.TradespersonID,
			CounterpartyID: room.Counterparty(userID),
			UnreadCount:    room.UnreadFor(userID),
			CreatedAt:      room.CreatedAt,
			LastActivity:   room.UpdatedAt,
		}
		if room.LastMessageID != nil {
			if last, err := m.messages.FindByID(*room.LastMessageID); err == nil {
				row.LastMessageID = &last.ID
				row.LastMessageSenderID = &last.SenderID
				row.LastMessageContent = &last.Content
				row.LastMessageCreatedAt = &last.CreatedAt
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LastActivity.Equal(rows[j].LastActivity) {
			return rows[i].RoomID > rows[j].RoomID
		}
		return rows[i].LastActivity.After(rows[j].LastActivity)
	})
	return rows, nil
}

func (m *MockRoomRepository) MarkRead(roomID uint, userID uint) error {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	if userID == room.CustomerID {
		room.CustomerUnread = 0
	} else {
		room.TradespersonUnread = 0
	}
	m.mu.Unlock()

	m.messages.markAllRead(roomID, userID)
	return nil
}

// appendside updates the room's derived state after a message insert.
func (m *MockRoomRepository) appendSide(roomID, senderID, messageID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := m.rooms[roomID]
	if senderID == room.CustomerID {
		room.TradespersonUnread++
	} else {
		room.CustomerUnread++
	}
	id := messageID
	room.LastMessageID = &id
	room.UpdatedAt = time.Now()
}

type MockMessageRepository struct {
	mu       sync.Mutex
	messages map[uint]*models.ChatMessage
	nextID   uint
	rooms    *MockRoomRepository
}

func NewMockMessageRepository(rooms *MockRoomRepository) *MockMessageRepository {
	m := &MockMessageRepository{
		messages: make(map[uint]*models.ChatMessage),
		nextID:   1,
		rooms:    rooms,
	}
	rooms.messages = m
	return m
}

func (m *MockMessageRepository) Append(roomID, senderID uint, clientID, content string) (*models.ChatMessage, error) {
	if _, err := m.rooms.FindByID(roomID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	var maxSeq uint
	for _, msg := range m.messages {
		if msg.RoomID == roomID && msg.Seq > maxSeq {
			maxSeq = msg.Seq
		}
	}
	msg := &models.ChatMessage{
		ID:        m.nextID,
		RoomID:    roomID,
		Seq:       maxSeq + 1,
		SenderID:  senderID,
		ClientID:  clientID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.messages[msg.ID] = msg
	copied := *msg
	m.mu.Unlock()

	m.rooms.appendSide(roomID, senderID, msg.ID)
	return &copied, nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *msg
	return &copied, nil
}

func (m *MockMessageRepository) FindByClientID(roomID uint, clientID string, senderID uint) (*models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.RoomID == roomID && msg.ClientID == clientID && msg.SenderID == senderID {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) ListByRoom(roomID uint) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.ChatMessage
	for _, msg := range m.messages {
		if msg.RoomID == roomID {
			result = append(result, *msg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Seq < result[j].Seq })
	return result, nil
}

func (m *MockMessageRepository) markAllRead(roomID, readerID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.RoomID == roomID && msg.SenderID != readerID {
			msg.IsRead = true
		}
	}
}

type MockUserRepository struct {
	users map[uint]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uint]*models.User)}
}

func (m *MockUserRepository) Add(user *models.User) {
	m.users[user.ID] = user
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type MockJobRepository struct {
	jobs map[uint]*models.Job
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{jobs: make(map[uint]*models.Job)}
}

func (m *MockJobRepository) Add(job *models.Job) {
	m.jobs[job.ID] = job
}

func (m *MockJobRepository) FindByID(id uint) (*models.Job, error) {
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, gorm.ErrRecordNotFound
}
