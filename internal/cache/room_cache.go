package cache

import (
	"fmt"
	"time"

	"github.com/handwerkly/chat-backend/internal/repository"
	"github.com/vmihailenco/msgpack/v5"
)

// RoomListTTL bounds staleness of cached room lists; appends and mark-read
// invalidate eagerly, the TTL only covers writes from other processes.
const RoomListTTL = 2 * time.Minute

// RoomCache caches per-user room lists. All methods are nil-safe so the
// process runs unchanged without Redis.
type RoomCache struct {
	redis *RedisCache
}

func NewRoomCache(redis *RedisCache) *RoomCache {
	return &RoomCache{redis: redis}
}

func roomListKey(userID uint) string {
	return fmt.Sprintf("rooms:%d", userID)
}

// GetRoomList retrieves a cached room list
func (rc *RoomCache) GetRoomList(userID uint) ([]repository.RoomListRow, bool) {
	if rc == nil || rc.redis == nil {
		return nil, false
	}
	data, err := rc.redis.Get(roomListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var rows []repository.RoomListRow
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

// SetRoomList caches a room list
func (rc *RoomCache) SetRoomList(userID uint, rows []repository.RoomListRow) error {
	if rc == nil || rc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(rows)
	if err != nil {
		return err
	}
	return rc.redis.Set(roomListKey(userID), data, RoomListTTL)
}

// Invalidate drops a user's cached room list
func (rc *RoomCache) Invalidate(userID uint) {
	if rc == nil || rc.redis == nil {
		return
	}
	_ = rc.redis.Delete(roomListKey(userID))
}
