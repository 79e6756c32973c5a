package service

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/handwerkly/chat-backend/internal/cache"
	"github.com/handwerkly/chat-backend/internal/models"
	"github.com/handwerkly/chat-backend/internal/repository"
	"github.com/handwerkly/chat-backend/internal/validation"
)

// ChatService is the room registry: the single owner of room and message
// state. Both delivery paths (the WebSocket gateway and the REST fallback)
// call the same operations here, so unread counts and message ordering can
// never diverge between them.
type ChatService struct {
	roomRepo    repository.RoomRepositoryInterface
	messageRepo repository.MessageRepositoryInterface
	userRepo    repository.UserRepositoryInterface
	jobRepo     repository.JobRepositoryInterface
	roomCache   *cache.RoomCache

	// publisher fans appended messages out to live subscribers; nil until
	// the hub is wired in at startup.
	publisher Publisher
	// sendLocks serializes append+publish per room (see SendMessage).
	sendLocks sync.Map

	readRetries    int
	readRetryDelay time.Duration
}

// SetPublisher wires the broadcast router in after construction.
func (s *ChatService) SetPublisher(p Publisher) {
	s.publisher = p
}

func NewChatService(
	roomRepo repository.RoomRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	jobRepo repository.JobRepositoryInterface,
	roomCache *cache.RoomCache,
) *ChatService {
	return &ChatService{
		roomRepo:       roomRepo,
		messageRepo:    messageRepo,
		userRepo:       userRepo,
		jobRepo:        jobRepo,
		roomCache:      roomCache,
		readRetries:    readRetryAttempts(),
		readRetryDelay: 100 * time.Millisecond,
	}
}

func readRetryAttempts() int {
	s := os.Getenv("READ_RETRY_ATTEMPTS")
	if s == "" {
		return 2
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 2
	}
	return n
}

// GetOrCreateRoom returns the room binding (job, requester, counterparty),
// creating it atomically if absent. One of the two users must be the job's
// customer; the other is the tradesperson. Concurrent calls with the same
// arguments all observe the same room.
func (s *ChatService) GetOrCreateRoom(jobID, requesterID, counterpartyID uint) (*models.ChatRoom, bool, error) {
	if requesterID == counterpartyID {
		return nil, false, ErrSamePair
	}

	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if notFound(err) {
			return nil, false, ErrJobNotFound
		}
		return nil, false, err
	}

	var customerID, tradespersonID uint
	switch job.CustomerID {
	case requesterID:
		customerID, tradespersonID = requesterID, counterpartyID
	case counterpartyID:
		customerID, tradespersonID = counterpartyID, requesterID
	default:
		// Neither side owns the job; nobody may open a room for it.
		return nil, false, ErrNotParticipant
	}

	room, created, err := s.roomRepo.GetOrCreate(jobID, customerID, tradespersonID)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.invalidateRoomList(room)
	}
	return room, created, nil
}

// ListRooms returns the user's rooms ordered by last activity descending,
// each row carrying the user's own unread counter.
func (s *ChatService) ListRooms(userID uint) ([]repository.RoomListRow, error) {
	if rows, ok := s.roomCache.GetRoomList(userID); ok {
		return rows, nil
	}

	var rows []repository.RoomListRow
	err := s.withReadRetry(func() error {
		var err error
		rows, err = s.roomRepo.ListForUser(userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(rows) > 0 {
		if err := s.roomCache.SetRoomList(userID, rows); err != nil {
			log.Printf("Failed to cache room list for user %d: %v", userID, err)
		}
	}
	return rows, nil
}

// AppendMessage validates and durably stores a message, bumping the
// counterparty's unread counter and the room's last-message summary. The
// second return reports whether this call stored a new message; a client-id
// dedup hit returns the already-stored message with false. Writes are never
// silently retried; a failure is surfaced so the caller resends explicitly.
func (s *ChatService) AppendMessage(roomID, senderID uint, clientID, content string) (*models.ChatMessage, bool, error) {
	content = validation.TrimAndLimit(content, validation.MaxMessageLength())
	if content == "" {
		return nil, false, ErrEmptyContent
	}

	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, false, err
	}
	if !room.IsParticipant(senderID) {
		return nil, false, ErrNotParticipant
	}

	// Resends over a flaky connection carry the same client id; return the
	// stored message instead of appending a duplicate. The lookup is scoped
	// to the room, so the same client id in another room is a fresh send.
	if clientID != "" {
		if existing, err := s.messageRepo.FindByClientID(roomID, clientID, senderID); err == nil {
			return existing, false, nil
		}
	} else {
		clientID = uuid.NewString()
	}

	msg, err := s.messageRepo.Append(roomID, senderID, clientID, content)
	if err != nil {
		return nil, false, err
	}

	s.invalidateRoomList(room)
	return msg, true, nil
}

// ListMessages returns the room's full history in delivery order.
func (s *ChatService) ListMessages(roomID, requesterID uint) ([]models.ChatMessage, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsParticipant(requesterID) {
		return nil, ErrNotParticipant
	}

	var messages []models.ChatMessage
	err = s.withReadRetry(func() error {
		var err error
		messages, err = s.messageRepo.ListByRoom(roomID)
		return err
	})
	return messages, err
}

// MarkRead zeroes the requester's unread counter and flips the read flag on
// the counterparty's messages. Idempotent.
func (s *ChatService) MarkRead(roomID, requesterID uint) error {
	room, err := s.getRoom(roomID)
	if err != nil {
		return err
	}
	if !room.IsParticipant(requesterID) {
		return ErrNotParticipant
	}

	if err := s.roomRepo.MarkRead(roomID, requesterID); err != nil {
		return err
	}

	s.invalidateRoomList(room)
	return nil
}

// IsParticipant checks room membership for connection admission.
func (s *ChatService) IsParticipant(roomID, userID uint) (bool, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return false, err
	}
	return room.IsParticipant(userID), nil
}

func (s *ChatService) getRoom(roomID uint) (*models.ChatRoom, error) {
	var room *models.ChatRoom
	err := s.withReadRetry(func() error {
		var err error
		room, err = s.roomRepo.FindByID(roomID)
		return err
	})
	if err != nil {
		if notFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// withReadRetry retries idempotent reads a bounded number of times on
// storage failures. Not-found is a definitive answer, never retried.
func (s *ChatService) withReadRetry(op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || notFound(err) || attempt >= s.readRetries {
			return err
		}
		log.Printf("Retrying read after storage error (attempt %d/%d): %v", attempt+1, s.readRetries, err)
		time.Sleep(s.readRetryDelay << uint(attempt))
	}
}

func (s *ChatService) invalidateRoomList(room *models.ChatRoom) {
	s.roomCache.Invalidate(room.CustomerID)
	s.roomCache.Invalidate(room.TradespersonID)
}

// SenderDisplayName resolves the display name attached to outbound payloads.
func (s *ChatService) SenderDisplayName(msg *models.ChatMessage) string {
	if msg.Sender.ID != 0 {
		return msg.Sender.DisplayName()
	}
	user, err := s.userRepo.FindByID(msg.SenderID)
	if err != nil {
		return ""
	}
	return user.DisplayName()
}
