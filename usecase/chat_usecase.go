package usecase

import (
	"context"

	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/entity"
)

type ChatUsecase interface {
	// CreateChat reports created=false when an existing admin DM was returned instead.
	CreateChat(ctx context.Context, creator *entity.User, request *req.CreateChatRequest) (chat res.ChatResponse, created bool, err error)
	GetChats(ctx context.Context, viewer *entity.User) ([]res.ChatResponse, error)
	GetChat(ctx context.Context, viewer *entity.User, chatID string) (res.ChatResponse, error)
	FindChatByID(ctx context.Context, chatID string) (*entity.Chat, error)
	FindViewableChat(ctx context.Context, viewer *entity.User, chatID string) (*entity.Chat, error)
	UpdateChat(ctx context.Context, actor *entity.User, chatID string, request *req.UpdateChatRequest) (res.ChatResponse, error)
	DeleteChat(ctx context.Context, actor *entity.User, chatID string) error
	AddParticipant(ctx context.Context, actor *entity.User, chatID string, request *req.AddParticipantRequest) (res.ChatResponse, error)
	RemoveParticipant(ctx context.Context, actor *entity.User, chatID, userID string) (res.ChatResponse, error)
	JoinChat(ctx context.Context, user *entity.User, chatID string) (res.ChatResponse, error)
	LeaveChat(ctx context.Context, user *entity.User, chatID string) error
	JoinByName(ctx context.Context, user *entity.User, request *req.JoinByNameRequest) (res.ChatResponse, error)
	SearchByName(ctx context.Context, viewer *entity.User, query string, limit int) ([]res.ChatResponse, error)
	BulkCreate(ctx context.Context, admin *entity.User, request *req.BulkCreateRequest) (res.BulkCreateResponse, error)
	QuickGroups(ctx context.Context, admin *entity.User, request *req.QuickGroupsRequest) (res.BulkCreateResponse, error)
}
