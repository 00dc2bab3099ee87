package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	kind int
	data string
}

type fakeConn struct {
	mu     sync.Mutex
	frames []frame
	closed bool
	fail   error
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.frames = append(c.frames, frame{kind: messageType, data: string(data)})
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) snapshot() ([]frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]frame(nil), c.frames...), c.closed
}

func TestWritePumpDeliversThenCloses(t *testing.T) {
	client := NewClient("alice", "Alice", 4)
	conn := &fakeConn{}
	require.True(t, client.Send([]byte(`{"event":"one"}`)))

	done := make(chan error, 1)
	go func() { done <- client.WritePump(conn, time.Hour) }()

	assert.Eventually(t, func() bool {
		frames, _ := conn.snapshot()
		return len(frames) == 1
	}, time.Second, 5*time.Millisecond)

	client.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("write pump did not stop after close")
	}

	frames, closed := conn.snapshot()
	require.Len(t, frames, 2)
	assert.Equal(t, websocket.TextMessage, frames[0].kind)
	assert.Equal(t, `{"event":"one"}`, frames[0].data)
	assert.Equal(t, websocket.CloseMessage, frames[1].kind)
	assert.True(t, closed)
}

func TestWritePumpPings(t *testing.T) {
	client := NewClient("alice", "Alice", 4)
	conn := &fakeConn{}
	go func() { _ = client.WritePump(conn, 10*time.Millisecond) }()
	defer client.Close()

	assert.Eventually(t, func() bool {
		frames, _ := conn.snapshot()
		for _, f := range frames {
			if f.kind == websocket.PingMessage {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestWritePumpStopsOnWriteError(t *testing.T) {
	client := NewClient("alice", "Alice", 4)
	broken := errors.New("broken pipe")
	conn := &fakeConn{fail: broken}
	require.True(t, client.Send([]byte("{}")))

	err := client.WritePump(conn, time.Hour)
	assert.ErrorIs(t, err, broken)
	_, closed := conn.snapshot()
	assert.True(t, closed)
}
