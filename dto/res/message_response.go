package res

import (
	"time"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
)

const (
	PositionRight = "right"
	PositionLeft  = "left"
)

type MessageResponse struct {
	ID           string                   `json:"id"`
	ChatID       string                   `json:"chatId"`
	SenderID     string                   `json:"senderId"`
	SenderName   string                   `json:"senderName"`
	SenderEmail  string                   `json:"senderEmail"`
	SenderRole   enum.UserRole            `json:"senderRole"`
	Content      string                   `json:"content"`
	Type         enum.MessageType         `json:"type"`
	Timestamp    time.Time                `json:"timestamp"`
	ReplyTo      *string                  `json:"replyTo,omitempty"`
	Status       enum.MessageStatus       `json:"status"`
	IsEdited     bool                     `json:"isEdited"`
	EditedAt     *time.Time               `json:"editedAt,omitempty"`
	EditHistory  []entity.MessageEdit     `json:"editHistory"`
	Reactions    []entity.MessageReaction `json:"reactions"`
	ReadBy       []entity.MessageRead     `json:"readBy"`
	IsOwnMessage bool                     `json:"isOwnMessage"`
	Position     string                   `json:"position"`
}

type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Count   int  `json:"count"`
	HasMore bool `json:"hasMore"`
}

type MessagePageResponse struct {
	Messages   []MessageResponse `json:"messages"`
	Pagination Pagination        `json:"pagination"`
}

type ReadReceiptResponse struct {
	ChatID     string    `json:"chatId"`
	MessageIDs []string  `json:"messageIds"`
	Count      int       `json:"count"`
	ReadAt     time.Time `json:"readAt"`
}

type ReactionResponse struct {
	MessageID string                   `json:"messageId"`
	ChatID    string                   `json:"chatId"`
	Reactions []entity.MessageReaction `json:"reactions"`
	Removed   bool                     `json:"removed"`
}

// ToMessageResponse maps msg as seen by viewerID; own messages sit on the right.
func ToMessageResponse(msg *entity.Message, viewerID string, senderRole enum.UserRole) MessageResponse {
	own := viewerID != "" && msg.SenderID == viewerID
	position := PositionLeft
	if own {
		position = PositionRight
	}
	return MessageResponse{
		ID:           msg.ID,
		ChatID:       msg.ChatID,
		SenderID:     msg.SenderID,
		SenderName:   msg.SenderName,
		SenderEmail:  msg.SenderEmail,
		SenderRole:   senderRole,
		Content:      msg.Content,
		Type:         msg.Type,
		Timestamp:    msg.Timestamp,
		ReplyTo:      msg.ReplyToID,
		Status:       msg.Status,
		IsEdited:     msg.IsEdited,
		EditedAt:     msg.EditedAt,
		EditHistory:  nonNil(msg.EditHistory),
		Reactions:    nonNil(msg.Reactions),
		ReadBy:       nonNil(msg.ReadBy),
		IsOwnMessage: own,
		Position:     position,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
