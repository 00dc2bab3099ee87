package usecase

import (
	"context"

	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/entity"
)

type AuthUsecase interface {
	RegisterUser(ctx context.Context, request *req.RegisterRequest) (res.AuthResponse, error)
	LoginUser(ctx context.Context, request *req.LoginRequest) (res.AuthResponse, error)
	RefreshToken(ctx context.Context, request *req.RefreshRequest) (res.TokenResponse, error)
	Logout(ctx context.Context, user *entity.User, refreshToken string) error
	LogoutAll(ctx context.Context, user *entity.User) error
	ChangePassword(ctx context.Context, user *entity.User, request *req.ChangePasswordRequest) error
}
