package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"festival-chat-api/access"
	"festival-chat-api/config/logger"
	"festival-chat-api/dto"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAdmin struct {
	admin *entity.User
	err   error
}

func (s staticAdmin) ResolveAdmin(context.Context) (*entity.User, error) {
	return s.admin, s.err
}

type failingBroker struct {
	LocalBroker
}

func (*failingBroker) Publish(context.Context, Envelope) error {
	return errors.New("broker down")
}

func user(id string, role enum.UserRole) *entity.User {
	return &entity.User{BaseEntity: entity.BaseEntity{ID: id}, Name: id, Role: role, IsActive: true}
}

func participantOf(u *entity.User) entity.ChatParticipant {
	return entity.ChatParticipant{UserID: u.ID, Name: u.Name, Role: enum.ParticipantMember, IsActive: true, User: u}
}

func newTestFanout(t *testing.T, admin *entity.User) (*Fanout, *Hub) {
	t.Helper()
	log := logger.NewNopLogger()
	hub := NewHub(log)
	fanout, err := NewFanout(hub, NewLocalBroker(), access.NewPolicy("", access.ListingOpen), staticAdmin{admin: admin}, log)
	require.NoError(t, err)
	return fanout, hub
}

func connect(hub *Hub, userID string, rooms ...string) *Client {
	c := NewClient(userID, userID, 16)
	hub.Register(c)
	for _, room := range rooms {
		hub.Join(c, RoomName(room))
	}
	return c
}

func TestFanoutRoutesRegularChatsToTheRoom(t *testing.T) {
	fanout, hub := newTestFanout(t, nil)
	ctx := context.Background()
	alice, bob := user("alice", enum.RoleMember), user("bob", enum.RoleMember)
	chat := &entity.Chat{BaseEntity: entity.BaseEntity{ID: "c1"}, IsActive: true,
		Participants: []entity.ChatParticipant{participantOf(alice), participantOf(bob)}}

	inRoom := connect(hub, "alice", "c1")
	other := connect(hub, "bob", "c1")
	outside := connect(hub, "carol")

	msg := &entity.Message{BaseEntity: entity.BaseEntity{ID: "m1"}, ChatID: "c1", SenderID: "alice", Sender: alice, Content: "hi"}
	fanout.MessageCreated(ctx, chat, msg)
	fanout.Typing(ctx, "c1", alice, true)
	fanout.MessagesRead(ctx, chat, bob, []string{"m1"})

	assert.Equal(t, []string{EventNewMessage, EventMessagesRead}, drain(t, inRoom))
	assert.Equal(t, []string{EventNewMessage, EventUserTyping}, drain(t, other))
	assert.Empty(t, drain(t, outside))
}

func TestFanoutAdminDMGoesOnlyToPermittedUsers(t *testing.T) {
	admin := user("admin", enum.RoleAdmin)
	fanout, hub := newTestFanout(t, admin)
	ctx := context.Background()
	alice, intruder := user("alice", enum.RoleMember), user("intruder", enum.RoleMember)
	chat := &entity.Chat{BaseEntity: entity.BaseEntity{ID: "dm"}, IsAdminDM: true, IsActive: true,
		Participants: []entity.ChatParticipant{participantOf(alice), participantOf(intruder)}}

	aliceConn := connect(hub, "alice", "dm")
	intruderConn := connect(hub, "intruder", "dm")
	adminConn := connect(hub, "admin")

	fromIntruder := &entity.Message{BaseEntity: entity.BaseEntity{ID: "m1"}, ChatID: "dm", SenderID: "intruder", Sender: intruder}
	assert.ElementsMatch(t, []string{"intruder", "admin"}, fanout.AdminDMRecipients(ctx, chat, fromIntruder))

	fanout.MessageCreated(ctx, chat, fromIntruder)
	assert.Empty(t, drain(t, aliceConn), "room membership does not leak admin DM traffic")
	assert.Equal(t, []string{EventNewMessage}, drain(t, intruderConn))
	assert.Equal(t, []string{EventNewMessage}, drain(t, adminConn), "the admin receives it without joining the room")

	fromAdmin := &entity.Message{BaseEntity: entity.BaseEntity{ID: "m2"}, ChatID: "dm", SenderID: "admin", Sender: admin}
	fanout.MessageEdited(ctx, chat, fromAdmin)
	assert.Equal(t, []string{EventMessageEdited}, drain(t, aliceConn))
	assert.Equal(t, []string{EventMessageEdited}, drain(t, intruderConn))
	assert.Equal(t, []string{EventMessageEdited}, drain(t, adminConn))
}

func TestFanoutPayloadCarriesSenderInfo(t *testing.T) {
	fanout, hub := newTestFanout(t, nil)
	alice := user("alice", enum.RoleAdmin)
	chat := &entity.Chat{BaseEntity: entity.BaseEntity{ID: "c1"}, IsActive: true,
		Participants: []entity.ChatParticipant{participantOf(alice)}}
	conn := connect(hub, "alice", "c1")

	fanout.MessageCreated(context.Background(), chat, &entity.Message{
		BaseEntity: entity.BaseEntity{ID: "m1"}, ChatID: "c1", SenderID: "alice", SenderName: "Alice",
		Sender: alice, Content: "soundcheck", Type: enum.MessageText, Timestamp: time.Now(),
	})

	payload := <-conn.Outbox()
	var frame struct {
		Event string               `json:"event"`
		Data  dto.BroadcastMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, EventNewMessage, frame.Event)
	assert.Equal(t, "c1", frame.Data.ChatID)
	assert.Equal(t, "soundcheck", frame.Data.Message.Content)
	assert.Equal(t, enum.RoleAdmin, frame.Data.SenderInfo.Role)
	assert.Equal(t, "Alice", frame.Data.SenderInfo.Name)
}

func TestFanoutPresenceSkipsTheUser(t *testing.T) {
	fanout, hub := newTestFanout(t, nil)
	alice := connect(hub, "alice")
	bob := connect(hub, "bob")

	fanout.UserOnline(context.Background(), "alice")
	fanout.UserOffline(context.Background(), "bob", time.Now())

	assert.Equal(t, []string{EventUserOffline}, drain(t, alice))
	assert.Equal(t, []string{EventUserOnline}, drain(t, bob))
}

func TestFanoutSwallowsBrokerErrors(t *testing.T) {
	log := logger.NewNopLogger()
	hub := NewHub(log)
	fanout, err := NewFanout(hub, &failingBroker{}, access.NewPolicy("", access.ListingOpen), staticAdmin{}, log)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		fanout.ToAll(context.Background(), EventUserOnline, dto.Presence{UserID: "alice"}, "")
	})
}

func TestFanoutParticipantLeftEvictsTheUser(t *testing.T) {
	fanout, hub := newTestFanout(t, nil)
	ctx := context.Background()
	alice, bob := user("alice", enum.RoleMember), user("bob", enum.RoleMember)
	chat := &entity.Chat{BaseEntity: entity.BaseEntity{ID: "c1"}, IsActive: true,
		Participants: []entity.ChatParticipant{participantOf(alice)}}

	aliceConn := connect(hub, "alice", "c1")
	bobConn := connect(hub, "bob", "c1")

	fanout.ParticipantLeft(ctx, chat, bob)
	assert.Equal(t, []string{EventUserLeftChat}, drain(t, aliceConn))
	assert.Equal(t, []string{EventLeftChat}, drain(t, bobConn))

	msg := &entity.Message{BaseEntity: entity.BaseEntity{ID: "m1"}, ChatID: "c1", SenderID: "alice", Sender: alice, Content: "secret plan"}
	fanout.MessageCreated(ctx, chat, msg)
	fanout.Typing(ctx, "c1", alice, true)
	assert.Empty(t, drain(t, bobConn))
	assert.Equal(t, []string{EventNewMessage}, drain(t, aliceConn))
}
