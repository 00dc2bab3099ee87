package realtime

import (
	"sort"
	"sync"
	"time"

	"festival-chat-api/config/logger"
	"festival-chat-api/dto"
)

type presence struct {
	sessions int
	lastSeen time.Time
}

// Hub indexes the local websocket sessions by room and by user and tracks presence.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	rooms    map[string]map[string]*Client
	users    map[string]map[string]*Client
	presence map[string]*presence
	Log      *logger.AppLogger
}

func NewHub(log *logger.AppLogger) *Hub {
	return &Hub{
		clients:  map[string]*Client{},
		rooms:    map[string]map[string]*Client{},
		users:    map[string]map[string]*Client{},
		presence: map[string]*presence{},
		Log:      log,
	}
}

// Register adds the session and reports whether it is the user's first live one.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID] = c
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = map[string]*Client{}
	}
	h.users[c.UserID][c.ID] = c

	p := h.presence[c.UserID]
	if p == nil {
		p = &presence{}
		h.presence[c.UserID] = p
	}
	p.sessions++
	p.lastSeen = time.Now()

	h.Log.WS.Info.Info().Str("userId", c.UserID).Str("clientId", c.ID).Int("sessions", p.sessions).Msg("Client connected")
	return p.sessions == 1
}

// Unregister removes the session from every room and closes it. offline reports whether it
// was the user's last live one, in which case the presence entry is dropped and lastSeen is
// the moment the user went away.
func (h *Hub) Unregister(c *Client) (lastSeen time.Time, offline bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return time.Time{}, false
	}
	delete(h.clients, c.ID)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	if sessions := h.users[c.UserID]; sessions != nil {
		delete(sessions, c.ID)
		if len(sessions) == 0 {
			delete(h.users, c.UserID)
		}
	}
	c.Close()

	p := h.presence[c.UserID]
	if p == nil {
		return time.Time{}, false
	}
	p.sessions--
	p.lastSeen = time.Now()
	h.Log.WS.Info.Info().Str("userId", c.UserID).Str("clientId", c.ID).Int("sessions", p.sessions).Msg("Client disconnected")
	if p.sessions > 0 {
		return p.lastSeen, false
	}
	delete(h.presence, c.UserID)
	return p.lastSeen, true
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = map[string]*Client{}
	}
	h.rooms[room][c.ID] = c
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members := h.rooms[room]; members != nil {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// LeaveUser removes every session of the user from the room and returns the removed ones.
func (h *Hub) LeaveUser(userID, room string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed []*Client
	for _, c := range h.rooms[room] {
		if c.UserID == userID {
			removed = append(removed, c)
		}
	}
	for _, c := range removed {
		h.leaveLocked(c, room)
	}
	return removed
}

func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// Deliver hands an envelope to the matching local sessions.
func (h *Hub) Deliver(env Envelope) {
	if env.Target == TargetEvict {
		evicted := h.LeaveUser(env.User, env.Key)
		if len(evicted) > 0 {
			h.Log.WS.Info.Info().Str("userId", env.User).Str("room", env.Key).Int("sessions", len(evicted)).Msg("Evicted user from room")
		}
		if len(env.Payload) > 0 {
			h.send(evicted, env.Payload)
		}
		return
	}

	h.mu.RLock()
	var targets []*Client
	switch env.Target {
	case TargetRoom:
		targets = collect(h.rooms[env.Key], env.ExceptUser)
	case TargetUser:
		targets = collect(h.users[env.Key], env.ExceptUser)
	case TargetAll:
		targets = collect(h.clients, env.ExceptUser)
	}
	h.mu.RUnlock()

	h.send(targets, env.Payload)
}

func (h *Hub) send(targets []*Client, payload []byte) {
	for _, c := range targets {
		if !c.Send(payload) {
			h.Log.WS.Warning.Warn().Str("clientId", c.ID).Str("userId", c.UserID).Msg("Dropping slow client")
			c.Close()
		}
	}
}

func collect(clients map[string]*Client, exceptUser string) []*Client {
	targets := make([]*Client, 0, len(clients))
	for _, c := range clients {
		if exceptUser != "" && c.UserID == exceptUser {
			continue
		}
		targets = append(targets, c)
	}
	return targets
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p := h.presence[userID]
	return p != nil && p.sessions > 0
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

// OnlineUsers lists users with at least one live session on this instance.
func (h *Hub) OnlineUsers() []dto.Presence {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]dto.Presence, 0, len(h.users))
	for userID := range h.users {
		lastSeen := h.presence[userID].lastSeen
		users = append(users, dto.Presence{UserID: userID, IsOnline: true, LastSeen: &lastSeen})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}
