// Package realtime delivers chat events to websocket sessions, locally or across
// instances through a broker.
package realtime

import (
	"encoding/json"

	"festival-chat-api/dto"
)

// Client events.
const (
	EventJoinChat         = "join_chat"
	EventLeaveChat        = "leave_chat"
	EventSendMessage      = "send_message"
	EventTypingStart      = "typing_start"
	EventTypingStop       = "typing_stop"
	EventMarkMessagesRead = "mark_messages_read"
	EventReactToMessage   = "react_to_message"
	EventGetOnlineUsers   = "get_online_users"
)

// Server events.
const (
	EventJoinedChat             = "joined_chat"
	EventLeftChat               = "left_chat"
	EventUserJoinedChat         = "user_joined_chat"
	EventUserLeftChat           = "user_left_chat"
	EventNewMessage             = "new_message"
	EventMessageEdited          = "message_edited"
	EventMessageDeleted         = "message_deleted"
	EventUserTyping             = "user_typing"
	EventMessagesRead           = "messages_read"
	EventMessageReactionUpdated = "message_reaction_updated"
	EventOnlineUsers            = "online_users"
	EventUserOnline             = "user_online"
	EventUserOffline            = "user_offline"
	EventError                  = "error"
)

func Encode(event string, data interface{}) ([]byte, error) {
	return json.Marshal(dto.Event{Event: event, Data: data})
}

// RoomName is the room every viewer of a chat joins.
func RoomName(chatID string) string {
	return "chat_" + chatID
}
