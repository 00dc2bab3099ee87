package usecase

import (
	"context"

	"festival-chat-api/apperror"
	"festival-chat-api/entity"
	"festival-chat-api/repository"
	"github.com/go-playground/validator/v10"
)

func validate(v *validator.Validate, request interface{}) error {
	if err := v.Struct(request); err != nil {
		return apperror.FromValidator(err)
	}
	return nil
}

// notFoundAs turns a missing record into a NotFoundError carrying message.
func notFoundAs(err error, message string) error {
	if repository.IsNotFound(err) {
		return apperror.NotFound(message)
	}
	return err
}

// Notifier receives committed changes for realtime delivery. Implementations must not
// block the caller and must not report errors back to the write path.
type Notifier interface {
	MessageCreated(ctx context.Context, chat *entity.Chat, message *entity.Message)
	MessageEdited(ctx context.Context, chat *entity.Chat, message *entity.Message)
	MessageDeleted(ctx context.Context, chat *entity.Chat, message *entity.Message, deletedBy *entity.User)
	MessagesRead(ctx context.Context, chat *entity.Chat, reader *entity.User, messageIDs []string)
	ReactionUpdated(ctx context.Context, chat *entity.Chat, message *entity.Message)
	ParticipantJoined(ctx context.Context, chat *entity.Chat, user *entity.User)
	ParticipantLeft(ctx context.Context, chat *entity.Chat, user *entity.User)
}

type NopNotifier struct{}

func (NopNotifier) MessageCreated(context.Context, *entity.Chat, *entity.Message) {}
func (NopNotifier) MessageEdited(context.Context, *entity.Chat, *entity.Message) {}
func (NopNotifier) MessageDeleted(context.Context, *entity.Chat, *entity.Message, *entity.User) {}
func (NopNotifier) MessagesRead(context.Context, *entity.Chat, *entity.User, []string) {}
func (NopNotifier) ReactionUpdated(context.Context, *entity.Chat, *entity.Message) {}
func (NopNotifier) ParticipantJoined(context.Context, *entity.Chat, *entity.User) {}
func (NopNotifier) ParticipantLeft(context.Context, *entity.Chat, *entity.User) {}

// PresenceCounter reports how many distinct users hold a live realtime session.
type PresenceCounter interface {
	OnlineCount() int
}
