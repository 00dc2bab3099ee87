package handler

import (
	"context"
	"encoding/json"
	"time"

	"festival-chat-api/apperror"
	"festival-chat-api/dto"
	"festival-chat-api/dto/req"
	"festival-chat-api/entity"
	"festival-chat-api/middleware"
	"festival-chat-api/realtime"
	"festival-chat-api/usecase"
	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPingInterval = 25 * time.Second

	maxFrameSize = 64 * 1024
)

type WebSocketHandler struct {
	*logrus.Logger
	Hub      *realtime.Hub
	Fanout   *realtime.Fanout
	Chats    usecase.ChatUsecase
	Messages usecase.MessageUsecase
	Users    usecase.UserUsecase

	PingInterval time.Duration
}

func NewWebSocketHandler(logger *logrus.Logger, hub *realtime.Hub, fanout *realtime.Fanout,
	chatUsecase usecase.ChatUsecase, messageUsecase usecase.MessageUsecase, userUsecase usecase.UserUsecase) *WebSocketHandler {
	return &WebSocketHandler{
		Logger:       logger,
		Hub:          hub,
		Fanout:       fanout,
		Chats:        chatUsecase,
		Messages:     messageUsecase,
		Users:        userUsecase,
		PingInterval: DefaultPingInterval,
	}
}

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (handler *WebSocketHandler) HandleWebSocket(conn *websocket.Conn) {
	user, ok := conn.Locals(middleware.LocalsUser).(*entity.User)
	if !ok {
		handler.Logger.Warn("Websocket connection without an authenticated user")
		_ = conn.Close()
		return
	}

	ctx := context.Background()
	client := realtime.NewClient(user.ID, user.Name, realtime.DefaultSendBuffer)
	handler.Connect(ctx, client)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		if err := client.WritePump(conn, handler.PingInterval); err != nil {
			handler.Logger.WithError(err).Debugf("Write pump of client %s stopped", client.ID)
		}
		client.Close()
	}()
	defer func() {
		handler.Disconnect(ctx, client)
		<-pumpDone
	}()

	conn.SetReadLimit(maxFrameSize)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			handler.Logger.Debugf("Read loop of client %s ended: %v", client.ID, err)
			return
		}
		handler.Dispatch(ctx, client, user, raw)
	}
}

// Connect registers the session and announces the user when it is their first one.
func (handler *WebSocketHandler) Connect(ctx context.Context, client *realtime.Client) {
	if handler.Hub.Register(client) {
		handler.Fanout.UserOnline(ctx, client.UserID)
	}
}

// Disconnect drops the session. Closing the user's last session persists lastActive
// and announces them offline.
func (handler *WebSocketHandler) Disconnect(ctx context.Context, client *realtime.Client) {
	lastSeen, offline := handler.Hub.Unregister(client)
	if !offline {
		return
	}
	if err := handler.Users.MarkOffline(ctx, client.UserID); err != nil {
		handler.Logger.WithError(err).Warnf("Failed to persist last active of user %s", client.UserID)
	}
	handler.Fanout.UserOffline(ctx, client.UserID, lastSeen)
}

// Dispatch runs one client event to completion. Failures are answered with an error event
// on the same session.
func (handler *WebSocketHandler) Dispatch(ctx context.Context, client *realtime.Client, user *entity.User, raw []byte) {
	var in inboundEvent
	if err := json.Unmarshal(raw, &in); err != nil {
		handler.replyError(client, apperror.Validation("Malformed event"))
		return
	}

	var err error
	switch in.Event {
	case realtime.EventJoinChat:
		err = handler.joinChat(ctx, client, user, in.Data)
	case realtime.EventLeaveChat:
		err = handler.leaveChat(ctx, client, user, in.Data)
	case realtime.EventSendMessage:
		err = handler.sendMessage(ctx, user, in.Data)
	case realtime.EventTypingStart:
		err = handler.typing(ctx, client, user, in.Data, true)
	case realtime.EventTypingStop:
		err = handler.typing(ctx, client, user, in.Data, false)
	case realtime.EventMarkMessagesRead:
		err = handler.markRead(ctx, user, in.Data)
	case realtime.EventReactToMessage:
		err = handler.react(ctx, user, in.Data)
	case realtime.EventGetOnlineUsers:
		handler.reply(client, realtime.EventOnlineUsers, handler.Hub.OnlineUsers())
	default:
		err = apperror.Validation("Unknown event " + in.Event)
	}

	if err != nil {
		handler.Logger.WithError(err).Debugf("Event %s of user %s failed", in.Event, user.ID)
		handler.replyError(client, err)
	}
}

func decode(data json.RawMessage, target interface{}) error {
	if len(data) == 0 {
		return apperror.Validation("Event data is required")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return apperror.Validation("Malformed event data")
	}
	return nil
}

func requireChatID(chatID string) error {
	if chatID == "" {
		return apperror.Validation("chatId is required", apperror.FieldError{Field: "chatId", Message: "chatId is required"})
	}
	return nil
}

func (handler *WebSocketHandler) joinChat(ctx context.Context, client *realtime.Client, user *entity.User, data json.RawMessage) error {
	var request req.ChatEventRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	if err := requireChatID(request.ChatID); err != nil {
		return err
	}
	chat, err := handler.Chats.FindViewableChat(ctx, user, request.ChatID)
	if err != nil {
		return err
	}

	room := realtime.RoomName(chat.ID)
	handler.Hub.Join(client, room)
	handler.reply(client, realtime.EventJoinedChat, dto.ChatMembership{ChatID: chat.ID})
	handler.Fanout.ToRoom(ctx, chat.ID, realtime.EventUserJoinedChat, dto.ChatMembership{ChatID: chat.ID, UserID: user.ID, UserName: user.Name}, user.ID)
	handler.Logger.Infof("User %s joined room %s", user.ID, room)
	return nil
}

func (handler *WebSocketHandler) leaveChat(ctx context.Context, client *realtime.Client, user *entity.User, data json.RawMessage) error {
	var request req.ChatEventRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	if err := requireChatID(request.ChatID); err != nil {
		return err
	}

	room := realtime.RoomName(request.ChatID)
	if !handler.Hub.InRoom(client, room) {
		return apperror.Conflict("Not in this chat room")
	}
	handler.Hub.Leave(client, room)
	handler.reply(client, realtime.EventLeftChat, dto.ChatMembership{ChatID: request.ChatID})
	handler.Fanout.ToRoom(ctx, request.ChatID, realtime.EventUserLeftChat, dto.ChatMembership{ChatID: request.ChatID, UserID: user.ID, UserName: user.Name}, user.ID)
	return nil
}

func (handler *WebSocketHandler) sendMessage(ctx context.Context, user *entity.User, data json.RawMessage) error {
	var request req.SocketMessageRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	if err := requireChatID(request.ChatID); err != nil {
		return err
	}
	// delivery to the room, the sender included, happens through the fanout
	_, err := handler.Messages.SendMessage(ctx, user, request.ChatID, &request.SendMessageRequest)
	return err
}

func (handler *WebSocketHandler) typing(ctx context.Context, client *realtime.Client, user *entity.User, data json.RawMessage, isTyping bool) error {
	var request req.ChatEventRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	if err := requireChatID(request.ChatID); err != nil {
		return err
	}
	room := realtime.RoomName(request.ChatID)
	if !handler.Hub.InRoom(client, room) {
		return apperror.Forbidden("Join the chat before typing in it")
	}
	if _, err := handler.Chats.FindViewableChat(ctx, user, request.ChatID); err != nil {
		handler.Hub.Leave(client, room)
		return err
	}
	handler.Fanout.Typing(ctx, request.ChatID, user, isTyping)
	return nil
}

func (handler *WebSocketHandler) markRead(ctx context.Context, user *entity.User, data json.RawMessage) error {
	var request req.SocketReadRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	if err := requireChatID(request.ChatID); err != nil {
		return err
	}
	_, err := handler.Messages.MarkMessagesAsRead(ctx, user, request.ChatID, &request.MarkReadRequest)
	return err
}

func (handler *WebSocketHandler) react(ctx context.Context, user *entity.User, data json.RawMessage) error {
	var request req.SocketReactionRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	if request.MessageID == "" {
		return apperror.Validation("messageId is required", apperror.FieldError{Field: "messageId", Message: "messageId is required"})
	}
	_, err := handler.Messages.ReactToMessage(ctx, user, request.MessageID, &request.ReactionRequest)
	return err
}

func (handler *WebSocketHandler) reply(client *realtime.Client, event string, data interface{}) {
	payload, err := realtime.Encode(event, data)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to encode %s", event)
		return
	}
	if !client.Send(payload) {
		handler.Logger.Warnf("Dropped %s for client %s", event, client.ID)
	}
}

func (handler *WebSocketHandler) replyError(client *realtime.Client, err error) {
	event := dto.ErrorEvent{Message: "Something went wrong"}
	if appErr, ok := apperror.As(err); ok {
		event.Message = appErr.Message
		event.Code = appErr.Code
		if event.Code == "" {
			event.Code = appErr.Kind.String()
		}
	}
	handler.reply(client, realtime.EventError, event)
}
