package usecase

import (
	"context"
	"strings"
	"time"

	"festival-chat-api/access"
	"festival-chat-api/apperror"
	"festival-chat-api/config/logger"
	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/repository"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	defaultMessageSearchLimit = 20
)

type MessageUsecaseImpl struct {
	*repository.MessageRepository
	ChatRepository *repository.ChatRepository
	*validator.Validate
	*gorm.DB
	Log      *logger.AppLogger
	Policy   *access.Policy
	Guard    *repository.Guard
	Chats    ChatUsecase
	Notifier Notifier
}

func NewMessageUsecase(messageRepository *repository.MessageRepository, chatRepository *repository.ChatRepository, validate *validator.Validate,
	DB *gorm.DB, logger *logger.AppLogger, policy *access.Policy, guard *repository.Guard, chats ChatUsecase, notifier Notifier) MessageUsecase {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MessageUsecaseImpl{
		MessageRepository: messageRepository,
		ChatRepository:    chatRepository,
		Validate:          validate,
		DB:                DB,
		Log:               logger,
		Policy:            policy,
		Guard:             guard,
		Chats:             chats,
		Notifier:          notifier,
	}
}

func (uc *MessageUsecaseImpl) toResponse(viewer *entity.User, msg *entity.Message) res.MessageResponse {
	return res.ToMessageResponse(msg, viewer.ID, uc.Policy.SenderRole(msg.Sender))
}

func (uc *MessageUsecaseImpl) summaryOf(msg *entity.Message) entity.LastMessage {
	id := msg.ID
	at := msg.Timestamp
	return entity.LastMessage{
		MessageID:  &id,
		Content:    msg.Content,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		SenderRole: uc.Policy.SenderRole(msg.Sender),
		Type:       msg.Type,
		Timestamp:  &at,
	}
}

func (uc *MessageUsecaseImpl) findMessage(ctx context.Context, messageID string) (*entity.Message, error) {
	var msg *entity.Message
	err := uc.Guard.Run(ctx, "find_message", func(ctx context.Context) error {
		var err error
		msg, err = uc.MessageRepository.FindMessageByID(ctx, uc.DB, messageID)
		return err
	})
	if err != nil {
		return nil, notFoundAs(err, "Message not found")
	}
	return msg, nil
}

// loadVisible loads a message together with its chat, failing unless viewer may see it.
func (uc *MessageUsecaseImpl) loadVisible(ctx context.Context, viewer *entity.User, messageID string) (*entity.Message, *entity.Chat, error) {
	msg, err := uc.findMessage(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	chat, err := uc.Chats.FindChatByID(ctx, msg.ChatID)
	if err != nil {
		return nil, nil, err
	}
	if !uc.Policy.CanViewMessage(viewer, chat, msg) {
		return nil, nil, apperror.Forbidden("Access denied to this message")
	}
	return msg, chat, nil
}

// SendMessage stores the message and the chat summary in one transaction, then notifies.
func (uc *MessageUsecaseImpl) SendMessage(ctx context.Context, sender *entity.User, chatID string, request *req.SendMessageRequest) (res.MessageResponse, error) {
	if err := validate(uc.Validate, request); err != nil {
		return res.MessageResponse{}, err
	}
	msgType := enum.MessageType(request.Type)
	if msgType == "" {
		msgType = enum.MessageText
	}
	if msgType.RequiresContent() && strings.TrimSpace(request.Content) == "" {
		return res.MessageResponse{}, apperror.Validation("Message content is required",
			apperror.FieldError{Field: "content", Message: "content is required"})
	}
	if msgType == enum.MessageSystem && !uc.Policy.IsAdmin(sender) {
		return res.MessageResponse{}, apperror.Forbidden("Only admins can send system messages")
	}

	chat, err := uc.Chats.FindChatByID(ctx, chatID)
	if err != nil {
		return res.MessageResponse{}, err
	}
	if !uc.Policy.CanSendMessage(sender, chat) {
		if !chat.IsActive {
			return res.MessageResponse{}, apperror.Conflict("Chat has been deleted")
		}
		return res.MessageResponse{}, apperror.Forbidden("You are not a participant of this chat")
	}

	var replyTo *string
	if id := strings.TrimSpace(request.ReplyTo); id != "" {
		parent, err := uc.findMessage(ctx, id)
		if err != nil || parent.ChatID != chat.ID {
			return res.MessageResponse{}, apperror.Validation("Reply target is not a message of this chat",
				apperror.FieldError{Field: "replyTo", Message: "replyTo must reference a message in the same chat"})
		}
		replyTo = &id
	}

	now := time.Now()
	message := &entity.Message{
		ChatID:      chat.ID,
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		SenderEmail: sender.Email,
		Content:     request.Content,
		Type:        msgType,
		Timestamp:   now,
		ReplyToID:   replyTo,
		Status:      enum.MessageStatusSent,
		IsEdited:    false,
		Sender:      sender,
	}

	err = uc.Guard.Run(ctx, "send_message", func(ctx context.Context) error {
		message.ID = ""
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := uc.MessageRepository.CreateMessage(ctx, tx, message); err != nil {
				return err
			}
			if err := uc.ChatRepository.UpdateLastMessage(ctx, tx, chat.ID, uc.summaryOf(message), now); err != nil {
				return err
			}
			return uc.ChatRepository.TouchLastRead(ctx, tx, chat.ID, sender.ID, now)
		})
	})
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("chatId", chat.ID).Str("senderId", sender.ID).Msg("Failed to send message")
		return res.MessageResponse{}, err
	}

	uc.Log.Http.Trace.Trace().Str("messageId", message.ID).Str("chatId", chat.ID).Msg("Message stored")
	chat.LastMessage = uc.summaryOf(message)
	chat.LastActivity = now
	uc.Notifier.MessageCreated(ctx, chat, message)
	return uc.toResponse(sender, message), nil
}

// GetMessages pages newest first, returns the page oldest first, and filters after paging,
// so a restricted viewer of an admin DM may receive fewer than limit messages.
func (uc *MessageUsecaseImpl) GetMessages(ctx context.Context, viewer *entity.User, chatID string, page, limit int) (res.MessagePageResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	chat, err := uc.Chats.FindViewableChat(ctx, viewer, chatID)
	if err != nil {
		return res.MessagePageResponse{}, err
	}

	var messages []entity.Message
	err = uc.Guard.Run(ctx, "list_messages", func(ctx context.Context) error {
		var err error
		messages, err = uc.MessageRepository.FindPageNewestFirst(ctx, uc.DB, chat.ID, (page-1)*limit, limit+1)
		return err
	})
	if err != nil {
		return res.MessagePageResponse{}, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	visible := uc.Policy.FilterMessages(viewer, chat, messages)

	responses := make([]res.MessageResponse, 0, len(visible))
	for i := range visible {
		responses = append(responses, uc.toResponse(viewer, &visible[i]))
	}
	return res.MessagePageResponse{
		Messages: responses,
		Pagination: res.Pagination{
			Page:    page,
			Limit:   limit,
			Count:   len(responses),
			HasMore: hasMore,
		},
	}, nil
}

func (uc *MessageUsecaseImpl) GetMessage(ctx context.Context, viewer *entity.User, messageID string) (res.MessageResponse, error) {
	msg, _, err := uc.loadVisible(ctx, viewer, messageID)
	if err != nil {
		return res.MessageResponse{}, err
	}
	return uc.toResponse(viewer, msg), nil
}

// EditMessage keeps the replaced content in the edit history.
func (uc *MessageUsecaseImpl) EditMessage(ctx context.Context, actor *entity.User, messageID string, request *req.EditMessageRequest) (res.MessageResponse, error) {
	if err := validate(uc.Validate, request); err != nil {
		return res.MessageResponse{}, err
	}
	if strings.TrimSpace(request.Content) == "" {
		return res.MessageResponse{}, apperror.Validation("Message content is required",
			apperror.FieldError{Field: "content", Message: "content is required"})
	}

	msg, err := uc.findMessage(ctx, messageID)
	if err != nil {
		return res.MessageResponse{}, err
	}
	if !uc.Policy.CanEditMessage(actor, msg) {
		return res.MessageResponse{}, apperror.Forbidden("You can only edit your own messages")
	}
	chat, err := uc.Chats.FindChatByID(ctx, msg.ChatID)
	if err != nil {
		return res.MessageResponse{}, err
	}

	now := time.Now()
	err = uc.Guard.Run(ctx, "edit_message", func(ctx context.Context) error {
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := uc.MessageRepository.AppendEdit(ctx, tx, msg, request.Content, now); err != nil {
				return err
			}
			if chat.LastMessage.MessageID == nil || *chat.LastMessage.MessageID != msg.ID {
				return nil
			}
			summary := chat.LastMessage
			summary.Content = request.Content
			return uc.ChatRepository.UpdateLastMessage(ctx, tx, chat.ID, summary, chat.LastActivity)
		})
	})
	if err != nil {
		return res.MessageResponse{}, err
	}

	updated, err := uc.findMessage(ctx, messageID)
	if err != nil {
		return res.MessageResponse{}, err
	}
	uc.Log.Http.Info.Info().Str("messageId", msg.ID).Str("actorId", actor.ID).Msg("Message edited")
	uc.Notifier.MessageEdited(ctx, chat, updated)
	return uc.toResponse(actor, updated), nil
}

// DeleteMessage removes the message for good. When it was the chat's last message the
// summary falls back to the newest remaining one.
func (uc *MessageUsecaseImpl) DeleteMessage(ctx context.Context, actor *entity.User, messageID string) error {
	msg, err := uc.findMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if !uc.Policy.CanDeleteMessage(actor, msg) {
		return apperror.Forbidden("You can only delete your own messages")
	}
	chat, err := uc.Chats.FindChatByID(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	err = uc.Guard.Run(ctx, "delete_message", func(ctx context.Context) error {
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := uc.MessageRepository.HardDelete(ctx, tx, msg.ID); err != nil {
				return err
			}
			if chat.LastMessage.MessageID == nil || *chat.LastMessage.MessageID != msg.ID {
				return nil
			}
			newest, err := uc.MessageRepository.FindNewest(ctx, tx, chat.ID)
			if repository.IsNotFound(err) {
				return uc.ChatRepository.UpdateLastMessage(ctx, tx, chat.ID, entity.LastMessage{}, chat.LastActivity)
			}
			if err != nil {
				return err
			}
			return uc.ChatRepository.UpdateLastMessage(ctx, tx, chat.ID, uc.summaryOf(newest), chat.LastActivity)
		})
	})
	if err != nil {
		return err
	}

	uc.Log.Http.Info.Info().Str("messageId", msg.ID).Str("actorId", actor.ID).Msg("Message deleted")
	uc.Notifier.MessageDeleted(ctx, chat, msg, actor)
	return nil
}

// MarkMessagesAsRead records read receipts for messages of the chat not sent by user.
// An empty id list means every such message.
func (uc *MessageUsecaseImpl) MarkMessagesAsRead(ctx context.Context, user *entity.User, chatID string, request *req.MarkReadRequest) (res.ReadReceiptResponse, error) {
	chat, err := uc.Chats.FindViewableChat(ctx, user, chatID)
	if err != nil {
		return res.ReadReceiptResponse{}, err
	}

	now := time.Now()
	var ids []string
	err = uc.Guard.Run(ctx, "mark_read", func(ctx context.Context) error {
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			ids, err = uc.MessageRepository.FindReadableIDs(ctx, tx, chat.ID, user.ID, request.MessageIDs)
			if err != nil {
				return err
			}
			if err := uc.MessageRepository.InsertReads(ctx, tx, ids, user.ID, now); err != nil {
				return err
			}
			return uc.ChatRepository.TouchLastRead(ctx, tx, chat.ID, user.ID, now)
		})
	})
	if err != nil {
		return res.ReadReceiptResponse{}, err
	}
	if ids == nil {
		ids = []string{}
	}

	if len(ids) > 0 {
		uc.Notifier.MessagesRead(ctx, chat, user, ids)
	}
	return res.ReadReceiptResponse{ChatID: chat.ID, MessageIDs: ids, Count: len(ids), ReadAt: now}, nil
}

func (uc *MessageUsecaseImpl) SearchMessages(ctx context.Context, viewer *entity.User, chatID, query string, limit int) ([]res.MessageResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("Search query is required", apperror.FieldError{Field: "q", Message: "q is required"})
	}
	if limit <= 0 {
		limit = defaultMessageSearchLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	chat, err := uc.Chats.FindViewableChat(ctx, viewer, chatID)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	err = uc.Guard.Run(ctx, "search_messages", func(ctx context.Context) error {
		var err error
		messages, err = uc.MessageRepository.SearchNewestFirst(ctx, uc.DB, chat.ID, query, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	visible := uc.Policy.FilterMessages(viewer, chat, messages)
	responses := make([]res.MessageResponse, 0, len(visible))
	for i := range visible {
		responses = append(responses, uc.toResponse(viewer, &visible[i]))
	}
	return responses, nil
}

// ReactToMessage sets the user's single reaction; repeating the current emoji removes it.
func (uc *MessageUsecaseImpl) ReactToMessage(ctx context.Context, user *entity.User, messageID string, request *req.ReactionRequest) (res.ReactionResponse, error) {
	if err := validate(uc.Validate, request); err != nil {
		return res.ReactionResponse{}, err
	}
	msg, chat, err := uc.loadVisible(ctx, user, messageID)
	if err != nil {
		return res.ReactionResponse{}, err
	}

	removed := false
	err = uc.Guard.Run(ctx, "react_to_message", func(ctx context.Context) error {
		removed = false
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := uc.MessageRepository.FindReaction(ctx, tx, msg.ID, user.ID)
			if err != nil && !repository.IsNotFound(err) {
				return err
			}
			if existing != nil && existing.Emoji == request.Emoji {
				removed = true
				return uc.MessageRepository.RemoveReaction(ctx, tx, msg.ID, user.ID)
			}
			return uc.MessageRepository.SetReaction(ctx, tx, msg.ID, user.ID, request.Emoji, time.Now())
		})
	})
	if err != nil {
		return res.ReactionResponse{}, err
	}

	updated, err := uc.findMessage(ctx, messageID)
	if err != nil {
		return res.ReactionResponse{}, err
	}
	uc.Notifier.ReactionUpdated(ctx, chat, updated)

	reactions := updated.Reactions
	if reactions == nil {
		reactions = []entity.MessageReaction{}
	}
	return res.ReactionResponse{MessageID: updated.ID, ChatID: updated.ChatID, Reactions: reactions, Removed: removed}, nil
}
