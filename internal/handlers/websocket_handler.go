package handlers

import (
	"errors"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/handwerkly/chat-backend/internal/handlers/ws"
	"github.com/handwerkly/chat-backend/internal/service"
)

// CloseIdleTimeout is the application close code sent when a connection is
// dropped for inactivity.
const CloseIdleTimeout = 4000

type WebSocketHandler struct {
	chatService *service.ChatService
	hub         *ws.Hub
	idleTimeout time.Duration
}

func NewWebSocketHandler(chatService *service.ChatService, hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		chatService: chatService,
		hub:         hub,
		idleTimeout: idleTimeout(),
	}
}

func idleTimeout() time.Duration {
	s := os.Getenv("IDLE_TIMEOUT_SECONDS")
	if s == "" {
		return 5 * time.Minute
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 5 * time.Minute
	}
	return time.Duration(n) * time.Second
}

// HandleChat runs one connection's lifecycle for /ws/chat/:roomID. The
// authenticated identity is set by the auth middleware before the upgrade.
func (h *WebSocketHandler) HandleChat(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)

	client := ws.NewClient(h.hub, c, userID, 0)
	client.Transition(ws.StateAuthenticating)

	roomID64, err := strconv.ParseUint(c.Params("roomID"), 10, 32)
	if err != nil {
		client.Close(websocket.ClosePolicyViolation, "invalid room id")
		return
	}
	roomID := uint(roomID64)
	client.RoomID = roomID

	// Participant check before any subscription exists: non-participants
	// are turned away with a policy close and no resources allocated.
	isParticipant, err := h.chatService.IsParticipant(roomID, userID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			client.Close(websocket.ClosePolicyViolation, "room not found")
		} else {
			client.Close(websocket.CloseInternalServerErr, "participant check failed")
		}
		return
	}
	if !isParticipant {
		log.Printf("User %d rejected from room %d: not a participant", userID, roomID)
		client.Close(websocket.ClosePolicyViolation, "not a participant")
		return
	}

	if err := h.hub.Subscribe(client); err != nil {
		client.Close(websocket.CloseGoingAway, "server shutting down")
		return
	}
	// Release the subscription on every exit path.
	defer client.Close(websocket.CloseNormalClosure, "")

	ctx := &ws.MessageContext{
		UserID:      userID,
		RoomID:      roomID,
		Client:      client,
		ChatService: h.chatService,
	}

	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.idleTimeout))
	})
	c.SetReadDeadline(time.Now().Add(h.idleTimeout))

	for {
		_, messageBytes, err := c.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Printf("User %d idle in room %d, closing", userID, roomID)
				client.Close(CloseIdleTimeout, "idle timeout")
			} else {
				log.Printf("Read error for user %d in room %d: %v", userID, roomID, err)
			}
			break
		}

		// Any inbound traffic counts as activity.
		c.SetReadDeadline(time.Now().Add(h.idleTimeout))

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing message from user %d: %v", userID, err)
			ws.SendError(client, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing message %s from user %d: %v", msg.GetType(), userID, err)
			break
		}
	}
}
