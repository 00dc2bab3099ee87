package access

import (
	"testing"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"github.com/stretchr/testify/assert"
)

const bootstrapEmail = "founder@festival.test"

func newUser(id, email string, role enum.UserRole) *entity.User {
	return &entity.User{BaseEntity: entity.BaseEntity{ID: id}, Name: id, Email: email, Role: role, IsActive: true}
}

func newChat(id, createdBy string, adminDM bool, participants ...entity.ChatParticipant) *entity.Chat {
	chatType := enum.GROUP
	if adminDM {
		chatType = enum.DM
	}
	return &entity.Chat{
		BaseEntity:   entity.BaseEntity{ID: id},
		Name:         id,
		ChatType:     chatType,
		CreatedBy:    createdBy,
		IsAdminDM:    adminDM,
		IsActive:     true,
		Participants: participants,
	}
}

func member(userID string, role enum.ParticipantRole, active bool) entity.ChatParticipant {
	return entity.ChatParticipant{UserID: userID, Role: role, IsActive: active}
}

func TestIsAdmin(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)

	assert.True(t, policy.IsAdmin(newUser("a", "a@test", enum.RoleAdmin)))
	assert.False(t, policy.IsAdmin(newUser("m", "m@test", enum.RoleMember)))
	assert.False(t, policy.IsAdmin(nil))
}

func TestBootstrapAdminSurvivesRoleDowngrade(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)
	founder := newUser("f", "Founder@Festival.test", enum.RoleMember)

	assert.True(t, policy.IsBootstrapAdmin(founder))
	assert.True(t, policy.IsAdmin(founder), "bootstrap account keeps admin powers after a downgrade")

	disabled := NewPolicy("", ListingOpen)
	assert.False(t, disabled.IsAdmin(founder), "an empty bootstrap email disables the override")
}

func TestCanViewChat(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)
	chat := newChat("c", "owner", false,
		member("owner", enum.ParticipantAdmin, true),
		member("left", enum.ParticipantMember, false),
	)

	assert.True(t, policy.CanViewChat(newUser("owner", "o@test", enum.RoleMember), chat))
	assert.False(t, policy.CanViewChat(newUser("left", "l@test", enum.RoleMember), chat))
	assert.False(t, policy.CanViewChat(newUser("stranger", "s@test", enum.RoleMember), chat))
	assert.True(t, policy.CanViewChat(newUser("admin", "ad@test", enum.RoleAdmin), chat))
}

func TestCanListChat(t *testing.T) {
	stranger := newUser("stranger", "s@test", enum.RoleMember)
	group := newChat("g", "owner", false, member("owner", enum.ParticipantAdmin, true))
	adminDM := newChat("dm", "owner", true, member("owner", enum.ParticipantAdmin, true))
	deleted := newChat("old", "owner", false)
	deleted.IsActive = false

	open := NewPolicy(bootstrapEmail, ListingOpen)
	assert.True(t, open.CanListChat(stranger, group))
	assert.False(t, open.CanListChat(stranger, adminDM))
	assert.False(t, open.CanListChat(stranger, deleted))

	gated := NewPolicy(bootstrapEmail, ListingParticipant)
	assert.False(t, gated.CanListChat(stranger, group))
	assert.True(t, gated.CanListChat(newUser("owner", "o@test", enum.RoleMember), group))
}

func TestCanModifyChat(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)
	chat := newChat("c", "creator", false,
		member("creator", enum.ParticipantMember, false),
		member("chatadmin", enum.ParticipantAdmin, true),
		member("mod", enum.ParticipantModerator, true),
	)

	assert.True(t, policy.CanModifyChat(newUser("creator", "c@test", enum.RoleMember), chat))
	assert.True(t, policy.CanModifyChat(newUser("chatadmin", "ca@test", enum.RoleMember), chat))
	assert.False(t, policy.CanModifyChat(newUser("mod", "mod@test", enum.RoleMember), chat))
	assert.True(t, policy.CanModifyChat(newUser("x", bootstrapEmail, enum.RoleMember), chat))
}

func TestJoinAndLeave(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)
	user := newUser("u", "u@test", enum.RoleMember)
	chat := newChat("c", "owner", false, member("owner", enum.ParticipantAdmin, true))

	assert.True(t, policy.CanJoinChat(user, chat))
	assert.False(t, policy.CanLeaveChat(user, chat))

	chat.Participants = append(chat.Participants, member("u", enum.ParticipantMember, true))
	assert.False(t, policy.CanJoinChat(user, chat))
	assert.True(t, policy.CanLeaveChat(user, chat))

	chat.Participants[1].IsActive = false
	assert.True(t, policy.CanJoinChat(user, chat), "a former participant may rejoin")

	chat.IsActive = false
	assert.False(t, policy.CanJoinChat(user, chat))
}

func TestAdminDMMessagePrivacy(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)
	admin := newUser("admin", "admin@test", enum.RoleAdmin)
	viewer := newUser("viewer", "viewer@test", enum.RoleMember)
	intruder := newUser("intruder", "intruder@test", enum.RoleMember)

	chat := newChat("dm", "viewer", true,
		member("viewer", enum.ParticipantAdmin, true),
		member("admin", enum.ParticipantMember, true),
		member("intruder", enum.ParticipantMember, true),
	)
	messages := []entity.Message{
		{BaseEntity: entity.BaseEntity{ID: "1"}, ChatID: "dm", SenderID: "viewer", Sender: viewer},
		{BaseEntity: entity.BaseEntity{ID: "2"}, ChatID: "dm", SenderID: "admin", Sender: admin},
		{BaseEntity: entity.BaseEntity{ID: "3"}, ChatID: "dm", SenderID: "intruder", Sender: intruder},
	}

	visible := policy.FilterMessages(viewer, chat, messages)
	if assert.Len(t, visible, 2) {
		assert.Equal(t, "1", visible[0].ID)
		assert.Equal(t, "2", visible[1].ID)
	}
	assert.Len(t, policy.FilterMessages(admin, chat, messages), 3)

	chat.IsAdminDM = false
	assert.Len(t, policy.FilterMessages(viewer, chat, messages), 3)
}

func TestCanViewMessageRejectsForeignChat(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)
	user := newUser("u", "u@test", enum.RoleMember)
	chat := newChat("c", "u", false, member("u", enum.ParticipantAdmin, true))

	assert.False(t, policy.CanViewMessage(user, chat, &entity.Message{ChatID: "other", SenderID: "u"}))
}

func TestCanViewLastMessage(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)
	viewer := newUser("viewer", "viewer@test", enum.RoleMember)
	id := "m1"
	chat := newChat("dm", "viewer", true, member("viewer", enum.ParticipantAdmin, true))
	chat.LastMessage = entity.LastMessage{MessageID: &id, SenderID: "intruder", SenderRole: enum.RoleMember}

	assert.False(t, policy.CanViewLastMessage(viewer, chat))

	chat.LastMessage.SenderRole = enum.RoleAdmin
	assert.True(t, policy.CanViewLastMessage(viewer, chat))
}

func TestEditAndDeleteMessage(t *testing.T) {
	policy := NewPolicy(bootstrapEmail, ListingOpen)
	msg := &entity.Message{SenderID: "author"}

	assert.True(t, policy.CanEditMessage(newUser("author", "a@test", enum.RoleMember), msg))
	assert.False(t, policy.CanEditMessage(newUser("other", "o@test", enum.RoleMember), msg))
	assert.True(t, policy.CanDeleteMessage(newUser("admin", "ad@test", enum.RoleAdmin), msg))
	assert.False(t, policy.CanDeleteMessage(nil, msg))
}
