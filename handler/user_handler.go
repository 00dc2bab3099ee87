package handler

import (
	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/middleware"
	"festival-chat-api/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	usecase.UserUsecase
	*logrus.Logger
}

func NewUserHandler(userUsecase usecase.UserUsecase, logger *logrus.Logger) *UserHandler {
	return &UserHandler{UserUsecase: userUsecase, Logger: logger}
}

func (handler *UserHandler) GetAllUsers(ctx *fiber.Ctx) error {
	userResponses, err := handler.UserUsecase.GetAllUser(ctx.Context())
	if err != nil {
		handler.Logger.WithError(err).Errorln("Failed to get all users")
		return err
	}

	responses := res.CommonResponse[[]res.UserResponse]{
		Success:    true,
		Message:    "Successfully To Get All User",
		StatusCode: fiber.StatusOK,
		Data:       userResponses,
	}
	return ctx.Status(fiber.StatusOK).JSON(responses)
}

func (handler *UserHandler) OnlineCount(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.CountResponse]{
		Success:    true,
		Message:    "Successfully To Count Online Users",
		StatusCode: fiber.StatusOK,
		Data:       res.CountResponse{Count: handler.UserUsecase.CountOnline()},
	})
}

func (handler *UserHandler) ActiveCount(ctx *fiber.Ctx) error {
	count, err := handler.UserUsecase.CountActive(ctx.Context())
	if err != nil {
		handler.Logger.WithError(err).Errorln("Failed to count active users")
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.CountResponse]{
		Success:    true,
		Message:    "Successfully To Count Active Users",
		StatusCode: fiber.StatusOK,
		Data:       res.CountResponse{Count: count},
	})
}

func (handler *UserHandler) UpdateRole(ctx *fiber.Ctx) error {
	payload := new(req.UpdateRoleRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}
	actor := middleware.CurrentUser(ctx)
	user, err := handler.UserUsecase.UpdateRole(ctx.Context(), actor, ctx.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to update role of user %s", ctx.Params("id"))
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.UserResponse]{
		Success:    true,
		Message:    "User role updated successfully",
		StatusCode: fiber.StatusOK,
		Data:       user,
	})
}

func (handler *UserHandler) UpdateStatus(ctx *fiber.Ctx) error {
	payload := new(req.UpdateStatusRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}
	actor := middleware.CurrentUser(ctx)
	user, err := handler.UserUsecase.UpdateStatus(ctx.Context(), actor, ctx.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to update status of user %s", ctx.Params("id"))
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.UserResponse]{
		Success:    true,
		Message:    "User status updated successfully",
		StatusCode: fiber.StatusOK,
		Data:       user,
	})
}
