package dto

import (
	"time"

	"festival-chat-api/dto/res"
	"festival-chat-api/enum"
)

// Event is the frame exchanged over the websocket in both directions.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type SenderInfo struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Role  enum.UserRole `json:"role"`
}

// BroadcastMessage is the payload of new_message and message_edited.
type BroadcastMessage struct {
	Message    res.MessageResponse `json:"message"`
	ChatID     string              `json:"chatId"`
	SenderInfo SenderInfo          `json:"senderInfo"`
	IsAdminDM  bool                `json:"isAdminDM,omitempty"`
}

type MessageDeleted struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
	DeletedBy string `json:"deletedBy"`
}

type MessagesRead struct {
	UserID     string    `json:"userId"`
	ChatID     string    `json:"chatId"`
	MessageIDs []string  `json:"messageIds"`
	ReadAt     time.Time `json:"readAt"`
}

type ChatMembership struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
}

type Typing struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

type Presence struct {
	UserID   string     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
