package usecase

import (
	"context"

	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/entity"
)

type MessageUsecase interface {
	SendMessage(ctx context.Context, sender *entity.User, chatID string, request *req.SendMessageRequest) (res.MessageResponse, error)
	GetMessages(ctx context.Context, viewer *entity.User, chatID string, page, limit int) (res.MessagePageResponse, error)
	GetMessage(ctx context.Context, viewer *entity.User, messageID string) (res.MessageResponse, error)
	EditMessage(ctx context.Context, actor *entity.User, messageID string, request *req.EditMessageRequest) (res.MessageResponse, error)
	DeleteMessage(ctx context.Context, actor *entity.User, messageID string) error
	MarkMessagesAsRead(ctx context.Context, user *entity.User, chatID string, request *req.MarkReadRequest) (res.ReadReceiptResponse, error)
	SearchMessages(ctx context.Context, viewer *entity.User, chatID, query string, limit int) ([]res.MessageResponse, error)
	ReactToMessage(ctx context.Context, user *entity.User, messageID string, request *req.ReactionRequest) (res.ReactionResponse, error)
}
