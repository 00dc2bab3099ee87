package realtime

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const (
	DefaultSendBuffer = 64

	writeWait = 10 * time.Second
)

// Conn is the part of a websocket connection the write pump needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one websocket session. A user may hold several.
type Client struct {
	ID       string
	UserID   string
	UserName string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// rooms is guarded by the hub lock.
	rooms map[string]struct{}
}

func NewClient(userID, userName string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		UserName: userName,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		rooms:    map[string]struct{}{},
	}
}

// Send queues payload without blocking. It reports false when the client is closed or
// its queue is full.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) Outbox() <-chan []byte {
	return c.send
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// WritePump drains the queue into conn and pings every pingInterval until the client
// closes or a write fails.
func (c *Client) WritePump(conn Conn, pingInterval time.Duration) error {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return nil
		case payload := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return err
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
