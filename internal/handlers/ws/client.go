package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
)

// ConnState is the lifecycle of one connection:
// Connecting -> Authenticating -> Subscribed -> Closing -> Closed.
// Closed is terminal; the transition through Closing always releases the
// hub subscription, on every exit path.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticating
	StateSubscribed
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateSubscribed:
		return "subscribed"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// ErrSendBufferFull marks a subscriber that cannot keep up with the room's
// fan-out. The hub drops such a client instead of stalling Publish.
var ErrSendBufferFull = errors.New("send buffer full")

const sendBufferSize = 32

// Client wraps one WebSocket connection subscribed to exactly one room. All
// outbound traffic is funneled through the send channel and written by a
// single writePump goroutine, so publishers never write to the socket
// concurrently.
type Client struct {
	UserID uint
	RoomID uint

	conn  *websocket.Conn
	hub   *Hub
	send  chan []byte
	done  chan struct{}
	state atomic.Int32

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, roomID uint) *Client {
	c := &Client{
		UserID: userID,
		RoomID: roomID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))
	return c
}

func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) {
	c.state.Store(int32(s))
}

// Transition records a lifecycle step driven by the connection handler
// (Connecting -> Authenticating). Subscribed/Closing/Closed are set by the
// hub and Close.
func (c *Client) Transition(s ConnState) {
	c.setState(s)
}

// Enqueue hands a pre-marshaled frame to the write pump without blocking.
func (c *Client) Enqueue(data []byte) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendJSON marshals v and enqueues it.
func (c *Client) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Enqueue(data)
}

// writePump is the single writer for this connection. It drains the send
// channel and keeps the connection alive with periodic pings.
func (c *Client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close(websocket.CloseGoingAway, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.Close(websocket.CloseGoingAway, "ping failed")
				return
			}
		}
	}
}

// Close moves the connection through Closing to Closed exactly once:
// unsubscribe from the hub, best-effort close frame, drop the socket. Safe
// to call from any goroutine and on every exit path.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.setState(StateClosing)
		c.hub.Unsubscribe(c)
		close(c.done)

		if c.conn != nil {
			deadline := time.Now().Add(time.Second)
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
			_ = c.conn.Close()
		}

		c.setState(StateClosed)
	})
}
