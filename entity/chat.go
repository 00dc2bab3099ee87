package entity

import (
	"time"

	"festival-chat-api/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Chat struct {
	BaseEntity
	Name         string            `json:"name" gorm:"type:varchar(50);not null"`
	Description  string            `json:"description" gorm:"type:varchar(500)"`
	ChatType     enum.ChatType     `json:"type" gorm:"column:type;type:varchar(10);not null"`
	Category     enum.ChatCategory `json:"category" gorm:"type:varchar(20);not null"`
	CreatedBy    string            `json:"createdBy" gorm:"type:varchar(255);not null;index"`
	IsAdminDM    bool              `json:"isAdminDM" gorm:"not null;index"`
	IsActive     bool              `json:"isActive" gorm:"not null;index"`
	Settings     ChatSettings      `json:"settings" gorm:"embedded;embeddedPrefix:setting_"`
	LastMessage  LastMessage       `json:"lastMessage" gorm:"embedded;embeddedPrefix:last_message_"`
	LastActivity time.Time         `json:"lastActivity"`

	// NameKey is the lower-cased name of an active group or channel; unique among them.
	NameKey *string `json:"-" gorm:"type:varchar(50);uniqueIndex"`
	// AdminDMKey identifies the user pair of an active admin DM; unique among them.
	AdminDMKey *string `json:"-" gorm:"type:varchar(255);uniqueIndex"`

	Participants []ChatParticipant `json:"participants" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE;"`
	Messages     []Message         `json:"-" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE;"`
}

type ChatSettings struct {
	AllowFileSharing  bool `json:"allowFileSharing"`
	AllowMediaSharing bool `json:"allowMediaSharing"`
	MaxParticipants   int  `json:"maxParticipants"`
	IsPublic          bool `json:"isPublic"`
	RequireApproval   bool `json:"requireApproval"`
}

// LastMessage is the denormalised summary of the newest message of a chat.
type LastMessage struct {
	MessageID  *string          `json:"messageId,omitempty" gorm:"type:varchar(255)"`
	Content    string           `json:"content,omitempty" gorm:"type:varchar(2000)"`
	SenderID   string           `json:"senderId,omitempty" gorm:"type:varchar(255)"`
	SenderName string           `json:"senderName,omitempty" gorm:"type:varchar(255)"`
	SenderRole enum.UserRole    `json:"senderRole,omitempty" gorm:"type:varchar(10)"`
	Type       enum.MessageType `json:"type,omitempty" gorm:"type:varchar(10)"`
	Timestamp  *time.Time       `json:"timestamp,omitempty"`
}

func (l LastMessage) Empty() bool {
	return l.MessageID == nil
}

type ChatParticipant struct {
	ID       string               `json:"id" gorm:"primaryKey;type:varchar(255)"`
	ChatID   string               `json:"chatId" gorm:"type:varchar(255);not null;uniqueIndex:idx_participant_chat_user"`
	UserID   string               `json:"userId" gorm:"type:varchar(255);not null;uniqueIndex:idx_participant_chat_user;index"`
	Name     string               `json:"name" gorm:"type:varchar(255)"`
	Role     enum.ParticipantRole `json:"role" gorm:"type:varchar(10);not null"`
	JoinedAt time.Time            `json:"joinedAt"`
	LastRead time.Time            `json:"lastRead"`
	IsActive bool                 `json:"isActive" gorm:"not null"`

	User *User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// Participant returns the record of userID, active or not.
func (c *Chat) Participant(userID string) *ChatParticipant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// IsParticipant reports whether userID holds an active participant record.
func (c *Chat) IsParticipant(userID string) bool {
	p := c.Participant(userID)
	return p != nil && p.IsActive
}

func (c *Chat) ActiveParticipants() []ChatParticipant {
	active := make([]ChatParticipant, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active
}

func (p *ChatParticipant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
