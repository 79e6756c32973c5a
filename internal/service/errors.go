package service

import (
	"errors"

	"gorm.io/gorm"
)

// Domain errors surfaced by ChatService. Handlers map these to HTTP statuses
// and WebSocket close/error codes; anything else is treated as a storage
// failure.
var (
	// ErrNotParticipant: the user is not one of the room's two participants.
	ErrNotParticipant = errors.New("not a participant of this chat room")
	// ErrEmptyContent: the message content is blank after trimming.
	ErrEmptyContent = errors.New("message content is empty")
	// ErrRoomNotFound: the referenced chat room does not exist.
	ErrRoomNotFound = errors.New("chat room not found")
	// ErrJobNotFound: the referenced job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrSamePair: requester and counterparty are the same user.
	ErrSamePair = errors.New("cannot open a chat room with yourself")
)

// IsDomainError reports whether err is a validation/lookup error rather than
// a storage failure. Storage failures are reported to callers distinctly so
// they can decide to retry.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotParticipant) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, ErrSamePair)
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
