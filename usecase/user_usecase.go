package usecase

import (
	"context"

	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/entity"
)

type UserUsecase interface {
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	GetProfile(user *entity.User) res.UserResponse
	UpdateProfile(ctx context.Context, user *entity.User, request *req.EditProfileRequest) (res.UserResponse, error)
	GetAllUser(ctx context.Context) ([]res.UserResponse, error)
	CountOnline() int64
	CountActive(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, actor *entity.User, userID string, request *req.UpdateRoleRequest) (res.UserResponse, error)
	UpdateStatus(ctx context.Context, actor *entity.User, userID string, request *req.UpdateStatusRequest) (res.UserResponse, error)
	TouchLastActive(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
}
