package usecase

import (
	"context"
	"sync"
	"testing"

	"festival-chat-api/access"
	"festival-chat-api/config/logger"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/repository"
	"festival-chat-api/testkit"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const founderEmail = "founder@festival.test"

type fixture struct {
	DB       *gorm.DB
	Policy   *access.Policy
	Chats    *ChatUsecaseImpl
	Messages MessageUsecase
	Users    UserUsecase
	Notes    *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testkit.NewDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	log := logger.NewNopLogger()
	policy := access.NewPolicy(founderEmail, access.ListingOpen)
	guard := testkit.NewGuard()
	notes := &recordingNotifier{}

	userRepository := repository.NewUserRepository()
	chatRepository := repository.NewChatRepository()
	admins := NewAdminDirectory(userRepository, db, policy, guard)
	chats := NewChatUsecase(chatRepository, userRepository, validate, db, log, policy, guard, admins, notes)
	messages := NewMessageUsecase(repository.NewMessageRepository(), chatRepository, validate, db, log, policy, guard, chats, notes)
	users := NewUserUsecase(userRepository, validate, db, log, policy, guard, nil)

	return &fixture{DB: db, Policy: policy, Chats: chats, Messages: messages, Users: users, Notes: notes}
}

func (f *fixture) user(t *testing.T, name string) *entity.User {
	return testkit.CreateUser(t, f.DB, name, name+"@festival.test", enum.RoleMember)
}

func (f *fixture) admin(t *testing.T, name string) *entity.User {
	return testkit.CreateUser(t, f.DB, name, name+"@festival.test", enum.RoleAdmin)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *recordingNotifier) MessageCreated(context.Context, *entity.Chat, *entity.Message) {
	n.record("message_created")
}

func (n *recordingNotifier) MessageEdited(context.Context, *entity.Chat, *entity.Message) {
	n.record("message_edited")
}

func (n *recordingNotifier) MessageDeleted(context.Context, *entity.Chat, *entity.Message, *entity.User) {
	n.record("message_deleted")
}

func (n *recordingNotifier) MessagesRead(context.Context, *entity.Chat, *entity.User, []string) {
	n.record("messages_read")
}

func (n *recordingNotifier) ReactionUpdated(context.Context, *entity.Chat, *entity.Message) {
	n.record("reaction_updated")
}

func (n *recordingNotifier) ParticipantJoined(context.Context, *entity.Chat, *entity.User) {
	n.record("participant_joined")
}

func (n *recordingNotifier) ParticipantLeft(context.Context, *entity.Chat, *entity.User) {
	n.record("participant_left")
}
