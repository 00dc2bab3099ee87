package handler

import (
	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/middleware"
	"festival-chat-api/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	usecase.AuthUsecase
	UserUsecase usecase.UserUsecase
	*logrus.Logger
}

func NewAuthHandler(authUseCase usecase.AuthUsecase, userUsecase usecase.UserUsecase, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{AuthUsecase: authUseCase, UserUsecase: userUsecase, Logger: logger}
}

func (handler *AuthHandler) RegisterUser(ctx *fiber.Ctx) error {
	// parse request
	payload := new(req.RegisterRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}
	// get from useCase
	registerResponse, err := handler.AuthUsecase.RegisterUser(ctx.Context(), payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to register new user: %v", err)
		return err
	}
	// response
	response := res.CommonResponse[res.AuthResponse]{
		Success:    true,
		Message:    "User registered successfully",
		StatusCode: fiber.StatusCreated,
		Data:       registerResponse,
	}
	handler.Logger.Infof("Success register user with id: %s", registerResponse.User.ID)
	return ctx.Status(fiber.StatusCreated).JSON(response)
}

func (handler *AuthHandler) LoginUser(ctx *fiber.Ctx) error {
	// parse request
	payload := new(req.LoginRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}
	// get from useCase
	loginResponse, err := handler.AuthUsecase.LoginUser(ctx.Context(), payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to login: %v", err)
		return err
	}
	// response
	response := res.CommonResponse[res.AuthResponse]{
		Success:    true,
		Message:    "Login successful",
		StatusCode: fiber.StatusOK,
		Data:       loginResponse,
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}

func (handler *AuthHandler) RefreshToken(ctx *fiber.Ctx) error {
	payload := new(req.RefreshRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}
	tokens, err := handler.AuthUsecase.RefreshToken(ctx.Context(), payload)
	if err != nil {
		handler.Logger.WithError(err).Warn("Failed to refresh token")
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.TokenResponse]{
		Success:    true,
		Message:    "Token refreshed successfully",
		StatusCode: fiber.StatusOK,
		Data:       tokens,
	})
}

func (handler *AuthHandler) Logout(ctx *fiber.Ctx) error {
	payload := new(req.LogoutRequest)
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, payload); err != nil {
			return err
		}
	}
	user := middleware.CurrentUser(ctx)
	if err := handler.AuthUsecase.Logout(ctx.Context(), user, payload.RefreshToken); err != nil {
		handler.Logger.WithError(err).Errorf("Failed to logout user %s", user.ID)
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Success:    true,
		Message:    "Logout successful",
		StatusCode: fiber.StatusOK,
	})
}

func (handler *AuthHandler) LogoutAll(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	if err := handler.AuthUsecase.LogoutAll(ctx.Context(), user); err != nil {
		handler.Logger.WithError(err).Errorf("Failed to logout user %s from all devices", user.ID)
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Success:    true,
		Message:    "Logged out from all devices",
		StatusCode: fiber.StatusOK,
	})
}

func (handler *AuthHandler) Me(ctx *fiber.Ctx) error {
	user := middleware.CurrentUser(ctx)
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.UserResponse]{
		Success:    true,
		Message:    "Successfully To Get Current User",
		StatusCode: fiber.StatusOK,
		Data:       handler.UserUsecase.GetProfile(user),
	})
}

func (handler *AuthHandler) UpdateMe(ctx *fiber.Ctx) error {
	payload := new(req.EditProfileRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(ctx)
	profile, err := handler.UserUsecase.UpdateProfile(ctx.Context(), user, payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to update profile of user %s", user.ID)
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.UserResponse]{
		Success:    true,
		Message:    "Profile updated successfully",
		StatusCode: fiber.StatusOK,
		Data:       profile,
	})
}

func (handler *AuthHandler) ChangePassword(ctx *fiber.Ctx) error {
	payload := new(req.ChangePasswordRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(ctx)
	if err := handler.AuthUsecase.ChangePassword(ctx.Context(), user, payload); err != nil {
		handler.Logger.WithError(err).Warnf("Failed to change password of user %s", user.ID)
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Success:    true,
		Message:    "Password changed successfully, please login again",
		StatusCode: fiber.StatusOK,
	})
}
