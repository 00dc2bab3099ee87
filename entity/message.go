package entity

import (
	"time"

	"festival-chat-api/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	BaseEntity
	ChatID      string             `json:"chatId" gorm:"type:varchar(255);not null;index:idx_message_chat_time"`
	SenderID    string             `json:"senderId" gorm:"type:varchar(255);not null;index"`
	SenderName  string             `json:"senderName" gorm:"type:varchar(255)"`
	SenderEmail string             `json:"senderEmail" gorm:"type:varchar(100)"`
	Content     string             `json:"content" gorm:"type:TEXT"`
	Type        enum.MessageType   `json:"type" gorm:"type:varchar(10);not null"`
	Timestamp   time.Time          `json:"timestamp" gorm:"not null;index:idx_message_chat_time"`
	ReplyToID   *string            `json:"replyTo,omitempty" gorm:"type:varchar(255);index"`
	Status      enum.MessageStatus `json:"status" gorm:"type:varchar(20);not null"`
	IsEdited    bool               `json:"isEdited" gorm:"not null"`
	EditedAt    *time.Time         `json:"editedAt,omitempty"`

	Sender      *User             `json:"-" gorm:"foreignKey:SenderID;references:ID"`
	EditHistory []MessageEdit     `json:"editHistory" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE;"`
	Reactions   []MessageReaction `json:"reactions" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE;"`
	ReadBy      []MessageRead     `json:"readBy" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE;"`
}

type MessageEdit struct {
	ID        string    `json:"-" gorm:"primaryKey;type:varchar(255)"`
	MessageID string    `json:"-" gorm:"type:varchar(255);not null;index"`
	Content   string    `json:"content" gorm:"type:TEXT"`
	EditedAt  time.Time `json:"editedAt"`
}

type MessageReaction struct {
	ID        string    `json:"-" gorm:"primaryKey;type:varchar(255)"`
	MessageID string    `json:"-" gorm:"type:varchar(255);not null;uniqueIndex:idx_reaction_message_user"`
	UserID    string    `json:"userId" gorm:"type:varchar(255);not null;uniqueIndex:idx_reaction_message_user"`
	Emoji     string    `json:"emoji" gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessageRead struct {
	ID        string    `json:"-" gorm:"primaryKey;type:varchar(255)"`
	MessageID string    `json:"-" gorm:"type:varchar(255);not null;uniqueIndex:idx_read_message_user"`
	UserID    string    `json:"userId" gorm:"type:varchar(255);not null;uniqueIndex:idx_read_message_user"`
	ReadAt    time.Time `json:"readAt"`
}

func (e *MessageEdit) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

func (r *MessageReaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (r *MessageRead) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
