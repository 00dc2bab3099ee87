package realtime

import (
	"context"
	"time"

	"festival-chat-api/access"
	"festival-chat-api/config/logger"
	"festival-chat-api/dto"
	"festival-chat-api/dto/res"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
)

type AdminResolver interface {
	ResolveAdmin(ctx context.Context) (*entity.User, error)
}

// Fanout turns committed changes into events. Regular chats are addressed to their room;
// admin DM traffic goes user by user to those allowed to see it, plus the designated admin.
// Failures are logged and never reach the caller.
type Fanout struct {
	Hub    *Hub
	Broker Broker
	Policy *access.Policy
	Admins AdminResolver
	Log    *logger.AppLogger
}

func NewFanout(hub *Hub, broker Broker, policy *access.Policy, admins AdminResolver, log *logger.AppLogger) (*Fanout, error) {
	if err := broker.Subscribe(hub.Deliver); err != nil {
		return nil, err
	}
	return &Fanout{Hub: hub, Broker: broker, Policy: policy, Admins: admins, Log: log}, nil
}

func (f *Fanout) publish(ctx context.Context, env Envelope, event string, data interface{}) {
	payload, err := Encode(event, data)
	if err != nil {
		f.Log.WS.Error.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}
	env.Payload = payload
	if err := f.Broker.Publish(ctx, env); err != nil {
		f.Log.WS.Error.Error().Err(err).Str("event", event).Str("target", string(env.Target)).Str("key", env.Key).Msg("Failed to publish event")
	}
}

func (f *Fanout) ToRoom(ctx context.Context, chatID, event string, data interface{}, exceptUser string) {
	f.publish(ctx, Envelope{Target: TargetRoom, Key: RoomName(chatID), ExceptUser: exceptUser}, event, data)
}

func (f *Fanout) ToUser(ctx context.Context, userID, event string, data interface{}) {
	f.publish(ctx, Envelope{Target: TargetUser, Key: userID}, event, data)
}

func (f *Fanout) ToAll(ctx context.Context, event string, data interface{}, exceptUser string) {
	f.publish(ctx, Envelope{Target: TargetAll, ExceptUser: exceptUser}, event, data)
}

// AdminDMRecipients lists the users who receive msg of the admin DM chat.
func (f *Fanout) AdminDMRecipients(ctx context.Context, chat *entity.Chat, msg *entity.Message) []string {
	seen := map[string]bool{}
	recipients := make([]string, 0, 2)
	for _, p := range chat.ActiveParticipants() {
		viewer := p.User
		if viewer == nil {
			viewer = &entity.User{BaseEntity: entity.BaseEntity{ID: p.UserID}, Name: p.Name, Role: enum.RoleMember}
		}
		if f.Policy.CanViewMessage(viewer, chat, msg) && !seen[p.UserID] {
			seen[p.UserID] = true
			recipients = append(recipients, p.UserID)
		}
	}

	admin, err := f.Admins.ResolveAdmin(ctx)
	if err != nil {
		f.Log.WS.Error.Error().Err(err).Str("chatId", chat.ID).Msg("Failed to resolve admin for admin DM delivery")
	} else if admin != nil && !seen[admin.ID] {
		recipients = append(recipients, admin.ID)
	}
	return recipients
}

func (f *Fanout) deliverMessageEvent(ctx context.Context, chat *entity.Chat, msg *entity.Message, event string, data interface{}) {
	if !chat.IsAdminDM {
		f.ToRoom(ctx, chat.ID, event, data, "")
		return
	}
	for _, userID := range f.AdminDMRecipients(ctx, chat, msg) {
		f.ToUser(ctx, userID, event, data)
	}
}

func (f *Fanout) broadcastMessage(chat *entity.Chat, msg *entity.Message) dto.BroadcastMessage {
	role := f.Policy.SenderRole(msg.Sender)
	return dto.BroadcastMessage{
		Message: res.ToMessageResponse(msg, "", role),
		ChatID:  chat.ID,
		SenderInfo: dto.SenderInfo{
			ID:    msg.SenderID,
			Name:  msg.SenderName,
			Email: msg.SenderEmail,
			Role:  role,
		},
		IsAdminDM: chat.IsAdminDM,
	}
}

func (f *Fanout) MessageCreated(ctx context.Context, chat *entity.Chat, msg *entity.Message) {
	f.deliverMessageEvent(ctx, chat, msg, EventNewMessage, f.broadcastMessage(chat, msg))
}

func (f *Fanout) MessageEdited(ctx context.Context, chat *entity.Chat, msg *entity.Message) {
	f.deliverMessageEvent(ctx, chat, msg, EventMessageEdited, f.broadcastMessage(chat, msg))
}

func (f *Fanout) MessageDeleted(ctx context.Context, chat *entity.Chat, msg *entity.Message, deletedBy *entity.User) {
	f.deliverMessageEvent(ctx, chat, msg, EventMessageDeleted, dto.MessageDeleted{
		MessageID: msg.ID,
		ChatID:    chat.ID,
		DeletedBy: deletedBy.ID,
	})
}

func (f *Fanout) MessagesRead(ctx context.Context, chat *entity.Chat, reader *entity.User, messageIDs []string) {
	f.ToRoom(ctx, chat.ID, EventMessagesRead, dto.MessagesRead{
		UserID:     reader.ID,
		ChatID:     chat.ID,
		MessageIDs: messageIDs,
		ReadAt:     time.Now(),
	}, reader.ID)
}

func (f *Fanout) ReactionUpdated(ctx context.Context, chat *entity.Chat, msg *entity.Message) {
	reactions := msg.Reactions
	if reactions == nil {
		reactions = []entity.MessageReaction{}
	}
	f.deliverMessageEvent(ctx, chat, msg, EventMessageReactionUpdated, res.ReactionResponse{
		MessageID: msg.ID,
		ChatID:    chat.ID,
		Reactions: reactions,
	})
}

func (f *Fanout) ParticipantJoined(ctx context.Context, chat *entity.Chat, user *entity.User) {
	f.ToRoom(ctx, chat.ID, EventUserJoinedChat, dto.ChatMembership{ChatID: chat.ID, UserID: user.ID, UserName: user.Name}, user.ID)
}

// ParticipantLeft tells the room and then pulls the user's sessions out of it, so they stop
// receiving the chat's events.
func (f *Fanout) ParticipantLeft(ctx context.Context, chat *entity.Chat, user *entity.User) {
	membership := dto.ChatMembership{ChatID: chat.ID, UserID: user.ID, UserName: user.Name}
	f.ToRoom(ctx, chat.ID, EventUserLeftChat, membership, user.ID)
	f.publish(ctx, Envelope{Target: TargetEvict, Key: RoomName(chat.ID), User: user.ID}, EventLeftChat, membership)
}

func (f *Fanout) Typing(ctx context.Context, chatID string, user *entity.User, isTyping bool) {
	f.ToRoom(ctx, chatID, EventUserTyping, dto.Typing{UserID: user.ID, UserName: user.Name, ChatID: chatID, IsTyping: isTyping}, user.ID)
}

func (f *Fanout) UserOnline(ctx context.Context, userID string) {
	f.ToAll(ctx, EventUserOnline, dto.Presence{UserID: userID, IsOnline: true}, userID)
}

func (f *Fanout) UserOffline(ctx context.Context, userID string, lastSeen time.Time) {
	f.ToAll(ctx, EventUserOffline, dto.Presence{UserID: userID, IsOnline: false, LastSeen: &lastSeen}, userID)
}
