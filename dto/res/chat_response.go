package res

import (
	"time"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
)

type ParticipantResponse struct {
	UserID   string               `json:"userId"`
	Name     string               `json:"name"`
	Email    string               `json:"email,omitempty"`
	Role     enum.ParticipantRole `json:"role"`
	JoinedAt time.Time            `json:"joinedAt"`
	LastRead time.Time            `json:"lastRead"`
}

type ChatResponse struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Description      string                `json:"description"`
	Type             enum.ChatType         `json:"type"`
	Category         enum.ChatCategory     `json:"category"`
	CreatedBy        string                `json:"createdBy"`
	IsAdminDM        bool                  `json:"isAdminDM"`
	IsActive         bool                  `json:"isActive"`
	Settings         entity.ChatSettings   `json:"settings"`
	LastMessage      *entity.LastMessage   `json:"lastMessage,omitempty"`
	LastActivity     time.Time             `json:"lastActivity"`
	Participants     []ParticipantResponse `json:"participants"`
	ParticipantCount int                   `json:"participantCount"`
	IsParticipant    bool                  `json:"isParticipant"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

type BulkCreateError struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type BulkCreateSummary struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
	Failed    int `json:"failed"`
}

type BulkCreateResponse struct {
	Chats   []ChatResponse    `json:"chats"`
	Errors  []BulkCreateError `json:"errors"`
	Summary BulkCreateSummary `json:"summary"`
}

// ToChatResponse lists active participants only. The last message summary is included
// only when showLastMessage is set, which callers decide through the access policy.
func ToChatResponse(chat *entity.Chat, viewerID string, showLastMessage bool) ChatResponse {
	active := chat.ActiveParticipants()
	participants := make([]ParticipantResponse, 0, len(active))
	for _, p := range active {
		participant := ParticipantResponse{
			UserID:   p.UserID,
			Name:     p.Name,
			Role:     p.Role,
			JoinedAt: p.JoinedAt,
			LastRead: p.LastRead,
		}
		if p.User != nil {
			participant.Email = p.User.Email
		}
		participants = append(participants, participant)
	}

	response := ChatResponse{
		ID:               chat.ID,
		Name:             chat.Name,
		Description:      chat.Description,
		Type:             chat.ChatType,
		Category:         chat.Category,
		CreatedBy:        chat.CreatedBy,
		IsAdminDM:        chat.IsAdminDM,
		IsActive:         chat.IsActive,
		Settings:         chat.Settings,
		LastActivity:     chat.LastActivity,
		Participants:     participants,
		ParticipantCount: len(participants),
		IsParticipant:    chat.IsParticipant(viewerID),
		CreatedAt:        chat.CreatedAt,
		UpdatedAt:        chat.UpdatedAt,
	}
	if showLastMessage && !chat.LastMessage.Empty() {
		last := chat.LastMessage
		response.LastMessage = &last
	}
	return response
}
