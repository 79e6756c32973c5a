package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Hub is the broadcast router: it maps room ids to the set of currently
// subscribed connections and fans published messages out to them. It is the
// single chokepoint both delivery paths use, so live and fallback sends
// produce identical fan-out behavior.
type Hub struct {
	rooms map[uint]map[*Client]struct{}
	mu    sync.RWMutex

	closed bool

	pingInterval time.Duration
}

// NewHub creates a new Hub instance. The hub is an explicit registry created
// at process start and torn down by Shutdown.
func NewHub() *Hub {
	return &Hub{
		rooms:        make(map[uint]map[*Client]struct{}),
		pingInterval: 30 * time.Second,
	}
}

// Subscribe registers a client for its room's live feed and moves it to
// Subscribed. The client's write pump is started here so every subscribed
// connection has exactly one writer.
func (h *Hub) Subscribe(c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errors.New("hub is shut down")
	}
	room := h.rooms[c.RoomID]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[c.RoomID] = room
	}
	room[c] = struct{}{}
	total := len(room)
	h.mu.Unlock()

	c.setState(StateSubscribed)
	if c.conn != nil {
		go c.writePump(h.pingInterval)
	}

	log.Printf("User %d subscribed to room %d (subscribers: %d)", c.UserID, c.RoomID, total)
	return nil
}

// Unsubscribe removes a client from its room's subscriber set. Idempotent;
// called from Client.Close on every exit path.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.RoomID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.RoomID)
		}
	}
	h.mu.Unlock()

	log.Printf("User %d unsubscribed from room %d", c.UserID, c.RoomID)
}

// Publish delivers a payload to every connection subscribed to the room,
// including the sender's own other sessions. A slow or dead subscriber is
// dropped independently and never stalls delivery to the rest of the room.
func (h *Hub) Publish(roomID uint, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling publish payload for room %d: %v", roomID, err)
		return
	}

	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	var slow []*Client
	for _, c := range subscribers {
		if err := c.Enqueue(data); err != nil {
			log.Printf("Dropping subscriber user %d in room %d: %v", c.UserID, roomID, err)
			slow = append(slow, c)
		}
	}

	// Close outside the fan-out loop; Close unsubscribes, which needs the
	// write lock.
	for _, c := range slow {
		c.Close(websocket.CloseTryAgainLater, "subscriber too slow")
	}
}

// RoomSubscriberCount returns the number of live subscribers for a room.
func (h *Hub) RoomSubscriberCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Count returns the total number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// Shutdown closes every connection and rejects further subscriptions.
// Nothing is flushed: the hub promises no buffering beyond the in-flight
// send queues.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	var all []*Client
	for _, room := range h.rooms {
		for c := range room {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		c.Close(websocket.CloseGoingAway, "server shutting down")
	}
	log.Printf("Hub shut down, closed %d connections", len(all))
}
