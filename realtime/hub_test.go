package realtime

import (
	"encoding/json"
	"testing"

	"festival-chat-api/config/logger"
	"festival-chat-api/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain returns the event names queued for c without blocking.
func drain(t *testing.T, c *Client) []string {
	t.Helper()
	var events []string
	for {
		select {
		case payload := <-c.Outbox():
			var frame dto.Event
			require.NoError(t, json.Unmarshal(payload, &frame))
			events = append(events, frame.Event)
		default:
			return events
		}
	}
}

func envelope(t *testing.T, target Target, key, exceptUser, event string) Envelope {
	t.Helper()
	payload, err := Encode(event, nil)
	require.NoError(t, err)
	return Envelope{Target: target, Key: key, ExceptUser: exceptUser, Payload: payload}
}

func TestHubPresenceCountsSessions(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	phone := NewClient("alice", "Alice", 0)
	laptop := NewClient("alice", "Alice", 0)

	assert.True(t, hub.Register(phone), "first session brings the user online")
	assert.False(t, hub.Register(laptop))
	assert.True(t, hub.IsOnline("alice"))
	assert.Equal(t, 1, hub.OnlineCount())

	_, offline := hub.Unregister(phone)
	assert.False(t, offline)
	assert.True(t, hub.IsOnline("alice"))
	lastSeen, offline := hub.Unregister(laptop)
	assert.True(t, offline, "last session takes the user offline")
	assert.False(t, lastSeen.IsZero())
	assert.False(t, hub.IsOnline("alice"))
	assert.Zero(t, hub.OnlineCount())
	_, offline = hub.Unregister(laptop)
	assert.False(t, offline, "unregistering twice is a no-op")

	select {
	case <-laptop.Done():
	default:
		t.Fatal("unregistered client must be closed")
	}
}

func TestHubOnlineUsers(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	hub.Register(NewClient("bob", "Bob", 0))
	hub.Register(NewClient("alice", "Alice", 0))
	hub.Register(NewClient("alice", "Alice", 0))

	users := hub.OnlineUsers()
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].UserID)
	assert.Equal(t, "bob", users[1].UserID)
	assert.True(t, users[0].IsOnline)
}

func TestHubDeliverByTarget(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	alice := NewClient("alice", "Alice", 0)
	bob := NewClient("bob", "Bob", 0)
	carol := NewClient("carol", "Carol", 0)
	for _, c := range []*Client{alice, bob, carol} {
		hub.Register(c)
	}
	room := RoomName("c1")
	hub.Join(alice, room)
	hub.Join(bob, room)
	assert.True(t, hub.InRoom(alice, room))
	assert.False(t, hub.InRoom(carol, room))

	hub.Deliver(envelope(t, TargetRoom, room, "alice", EventUserTyping))
	hub.Deliver(envelope(t, TargetUser, "carol", "", EventNewMessage))
	hub.Deliver(envelope(t, TargetAll, "", "bob", EventUserOnline))

	assert.Equal(t, []string{EventUserOnline}, drain(t, alice))
	assert.Equal(t, []string{EventUserTyping}, drain(t, bob))
	assert.Equal(t, []string{EventNewMessage, EventUserOnline}, drain(t, carol))

	hub.Leave(bob, room)
	hub.Deliver(envelope(t, TargetRoom, room, "", EventNewMessage))
	assert.Empty(t, drain(t, bob))
	assert.Equal(t, []string{EventNewMessage}, drain(t, alice))
}

func TestHubForgetsOfflineUsers(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	for n := 0; n < 50; n++ {
		c := NewClient("guest", "Guest", 0)
		hub.Register(c)
		hub.Unregister(c)
	}
	stays := NewClient("alice", "Alice", 0)
	hub.Register(stays)
	hub.Register(NewClient("bob", "Bob", 0))
	gone := NewClient("bob", "Bob", 0)
	hub.Register(gone)
	hub.Unregister(gone)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Len(t, hub.presence, 2, "only users with live sessions are tracked")
	assert.Equal(t, 1, hub.presence["bob"].sessions)
}

func TestHubEvictsUserFromRoom(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	alice := NewClient("alice", "Alice", 0)
	bobPhone := NewClient("bob", "Bob", 0)
	bobLaptop := NewClient("bob", "Bob", 0)
	for _, c := range []*Client{alice, bobPhone, bobLaptop} {
		hub.Register(c)
	}
	room, other := RoomName("c1"), RoomName("c2")
	hub.Join(alice, room)
	hub.Join(bobPhone, room)
	hub.Join(bobLaptop, room)
	hub.Join(bobLaptop, other)

	evict := envelope(t, TargetEvict, room, "", EventLeftChat)
	evict.User = "bob"
	hub.Deliver(evict)
	assert.Equal(t, []string{EventLeftChat}, drain(t, bobPhone))
	assert.Equal(t, []string{EventLeftChat}, drain(t, bobLaptop))
	assert.Empty(t, drain(t, alice))
	assert.False(t, hub.InRoom(bobPhone, room))
	assert.False(t, hub.InRoom(bobLaptop, room))
	assert.True(t, hub.InRoom(bobLaptop, other), "other rooms are untouched")

	hub.Deliver(envelope(t, TargetRoom, room, "", EventNewMessage))
	assert.Empty(t, drain(t, bobPhone))
	assert.Empty(t, drain(t, bobLaptop))
	assert.Equal(t, []string{EventNewMessage}, drain(t, alice))

	assert.Empty(t, hub.LeaveUser("bob", room), "evicting twice finds nobody")
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	alice := NewClient("alice", "Alice", 0)
	hub.Register(alice)
	hub.Join(alice, RoomName("c1"))
	hub.Unregister(alice)

	hub.Join(alice, RoomName("c2"))
	assert.False(t, hub.InRoom(alice, RoomName("c1")))
	assert.False(t, hub.InRoom(alice, RoomName("c2")), "closed clients cannot join rooms")
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(logger.NewNopLogger())
	slow := NewClient("slow", "Slow", 1)
	fast := NewClient("fast", "Fast", 8)
	hub.Register(slow)
	hub.Register(fast)

	hub.Deliver(envelope(t, TargetAll, "", "", EventUserOnline))
	hub.Deliver(envelope(t, TargetAll, "", "", EventUserOffline))

	select {
	case <-slow.Done():
	default:
		t.Fatal("a client with a full queue is closed")
	}
	assert.False(t, slow.Send([]byte("{}")))
	assert.Equal(t, []string{EventUserOnline, EventUserOffline}, drain(t, fast))
}
