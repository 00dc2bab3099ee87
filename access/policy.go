// Package access answers who may see or change which chat and message.
// Every decision is a pure function of its arguments; callers load the entities.
package access

import (
	"strings"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
)

// ListingPolicy selects which chats show up in GET /chats for a non-admin.
type ListingPolicy string

const (
	// ListingOpen lists every active chat except admin DMs the viewer cannot view.
	ListingOpen ListingPolicy = "open"
	// ListingParticipant lists only chats the viewer can view.
	ListingParticipant ListingPolicy = "participant"
)

type Policy struct {
	bootstrapEmail string
	listing        ListingPolicy
}

// NewPolicy builds a policy. An empty bootstrapEmail disables the bootstrap admin.
func NewPolicy(bootstrapEmail string, listing ListingPolicy) *Policy {
	if listing != ListingParticipant {
		listing = ListingOpen
	}
	return &Policy{
		bootstrapEmail: strings.ToLower(strings.TrimSpace(bootstrapEmail)),
		listing:        listing,
	}
}

func (p *Policy) BootstrapEmail() string {
	return p.bootstrapEmail
}

func (p *Policy) Listing() ListingPolicy {
	return p.listing
}

// IsBootstrapAdmin reports whether user is the configured bootstrap account.
// That account keeps admin powers whatever its stored role says.
func (p *Policy) IsBootstrapAdmin(user *entity.User) bool {
	if user == nil || p.bootstrapEmail == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(user.Email), p.bootstrapEmail)
}

func (p *Policy) IsAdmin(user *entity.User) bool {
	if user == nil {
		return false
	}
	return user.Role == enum.RoleAdmin || p.IsBootstrapAdmin(user)
}

func (p *Policy) CanViewChat(user *entity.User, chat *entity.Chat) bool {
	if user == nil || chat == nil {
		return false
	}
	return p.IsAdmin(user) || chat.IsParticipant(user.ID)
}

func (p *Policy) CanListChat(user *entity.User, chat *entity.Chat) bool {
	if user == nil || chat == nil {
		return false
	}
	if p.IsAdmin(user) {
		return true
	}
	if !chat.IsActive {
		return false
	}
	if p.listing == ListingParticipant || chat.IsAdminDM {
		return p.CanViewChat(user, chat)
	}
	return true
}

func (p *Policy) CanModifyChat(user *entity.User, chat *entity.Chat) bool {
	if user == nil || chat == nil {
		return false
	}
	if p.IsAdmin(user) || chat.CreatedBy == user.ID {
		return true
	}
	participant := chat.Participant(user.ID)
	return participant != nil && participant.IsActive && participant.Role == enum.ParticipantAdmin
}

func (p *Policy) CanJoinChat(user *entity.User, chat *entity.Chat) bool {
	if user == nil || chat == nil {
		return false
	}
	return chat.IsActive && !chat.IsParticipant(user.ID)
}

func (p *Policy) CanLeaveChat(user *entity.User, chat *entity.Chat) bool {
	if user == nil || chat == nil {
		return false
	}
	return chat.IsParticipant(user.ID)
}

// CanSendMessage requires a live chat the user can view.
func (p *Policy) CanSendMessage(user *entity.User, chat *entity.Chat) bool {
	return chat != nil && chat.IsActive && p.CanViewChat(user, chat)
}

// CanViewMessage applies the admin DM privacy rule: a non-admin only sees their own
// messages and those sent by an admin. msg.Sender must be loaded for the admin check.
func (p *Policy) CanViewMessage(user *entity.User, chat *entity.Chat, msg *entity.Message) bool {
	if !p.CanViewChat(user, chat) || msg == nil || msg.ChatID != chat.ID {
		return false
	}
	if !chat.IsAdminDM || p.IsAdmin(user) {
		return true
	}
	return msg.SenderID == user.ID || p.IsAdmin(msg.Sender)
}

// CanViewLastMessage applies the same rule to the denormalised chat summary.
func (p *Policy) CanViewLastMessage(user *entity.User, chat *entity.Chat) bool {
	if chat == nil || chat.LastMessage.Empty() || user == nil {
		return false
	}
	if !chat.IsAdminDM || p.IsAdmin(user) {
		return true
	}
	if !chat.IsParticipant(user.ID) {
		return false
	}
	return chat.LastMessage.SenderID == user.ID || chat.LastMessage.SenderRole == enum.RoleAdmin
}

func (p *Policy) CanEditMessage(user *entity.User, msg *entity.Message) bool {
	if user == nil || msg == nil {
		return false
	}
	return msg.SenderID == user.ID || p.IsAdmin(user)
}

func (p *Policy) CanDeleteMessage(user *entity.User, msg *entity.Message) bool {
	return p.CanEditMessage(user, msg)
}

// FilterMessages keeps, in order, the messages viewer may see.
func (p *Policy) FilterMessages(viewer *entity.User, chat *entity.Chat, messages []entity.Message) []entity.Message {
	visible := make([]entity.Message, 0, len(messages))
	for i := range messages {
		if p.CanViewMessage(viewer, chat, &messages[i]) {
			visible = append(visible, messages[i])
		}
	}
	return visible
}

// SenderRole is the role recorded in chat summaries for a message sent by user.
func (p *Policy) SenderRole(user *entity.User) enum.UserRole {
	if p.IsAdmin(user) {
		return enum.RoleAdmin
	}
	return enum.RoleMember
}
