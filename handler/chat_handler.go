package handler

import (
	"fmt"

	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/middleware"
	"festival-chat-api/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ChatHandler struct {
	usecase.ChatUsecase
	*logrus.Logger
}

func NewChatHandler(chatUsecase usecase.ChatUsecase, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		ChatUsecase: chatUsecase,
		Logger:      logger,
	}
}

func (handler *ChatHandler) GetAllChat(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	chatResponses, err := handler.ChatUsecase.GetChats(c.Context(), user)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to get chats for user %s", user.ID)
		return err
	}

	responses := res.CommonResponse[[]res.ChatResponse]{
		Success:    true,
		Message:    "Successfully to Get All Chats",
		StatusCode: fiber.StatusOK,
		Data:       chatResponses,
	}

	return c.Status(fiber.StatusOK).JSON(responses)
}

func (handler *ChatHandler) CreateChat(c *fiber.Ctx) error {
	payload := new(req.CreateChatRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)

	chat, created, err := handler.ChatUsecase.CreateChat(c.Context(), user, payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to create chat for user %s", user.ID)
		return err
	}

	if !created {
		return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ChatResponse]{
			Success:    true,
			Message:    "Admin DM already exists",
			StatusCode: fiber.StatusOK,
			Data:       chat,
		})
	}
	handler.Logger.Infof("Chat %s created by user %s", chat.ID, user.ID)
	return c.Status(fiber.StatusCreated).JSON(res.CommonResponse[res.ChatResponse]{
		Success:    true,
		Message:    "Chat created successfully",
		StatusCode: fiber.StatusCreated,
		Data:       chat,
	})
}

func (handler *ChatHandler) GetChat(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	chat, err := handler.ChatUsecase.GetChat(c.Context(), user, c.Params("id"))
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to get chat %s", c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ChatResponse]{
		Success:    true,
		Message:    "Successfully to Get Chat",
		StatusCode: fiber.StatusOK,
		Data:       chat,
	})
}

func (handler *ChatHandler) UpdateChat(c *fiber.Ctx) error {
	payload := new(req.UpdateChatRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	chat, err := handler.ChatUsecase.UpdateChat(c.Context(), user, c.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to update chat %s", c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ChatResponse]{
		Success:    true,
		Message:    "Chat updated successfully",
		StatusCode: fiber.StatusOK,
		Data:       chat,
	})
}

func (handler *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := handler.ChatUsecase.DeleteChat(c.Context(), user, c.Params("id")); err != nil {
		handler.Logger.WithError(err).Warnf("Failed to delete chat %s", c.Params("id"))
		return err
	}
	handler.Logger.Infof("Chat %s deleted by user %s", c.Params("id"), user.ID)
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Success:    true,
		Message:    "Chat deleted successfully",
		StatusCode: fiber.StatusOK,
	})
}

func (handler *ChatHandler) AddParticipant(c *fiber.Ctx) error {
	payload := new(req.AddParticipantRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	chat, err := handler.ChatUsecase.AddParticipant(c.Context(), user, c.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to add participant %s to chat %s", payload.UserID, c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ChatResponse]{
		Success:    true,
		Message:    "Participant added successfully",
		StatusCode: fiber.StatusOK,
		Data:       chat,
	})
}

func (handler *ChatHandler) RemoveParticipant(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	chat, err := handler.ChatUsecase.RemoveParticipant(c.Context(), user, c.Params("id"), c.Params("userId"))
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to remove participant %s from chat %s", c.Params("userId"), c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ChatResponse]{
		Success:    true,
		Message:    "Participant removed successfully",
		StatusCode: fiber.StatusOK,
		Data:       chat,
	})
}

func (handler *ChatHandler) JoinChat(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	chat, err := handler.ChatUsecase.JoinChat(c.Context(), user, c.Params("id"))
	if err != nil {
		handler.Logger.WithError(err).Warnf("User %s failed to join chat %s", user.ID, c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ChatResponse]{
		Success:    true,
		Message:    "Joined chat successfully",
		StatusCode: fiber.StatusOK,
		Data:       chat,
	})
}

func (handler *ChatHandler) LeaveChat(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := handler.ChatUsecase.LeaveChat(c.Context(), user, c.Params("id")); err != nil {
		handler.Logger.WithError(err).Warnf("User %s failed to leave chat %s", user.ID, c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Success:    true,
		Message:    "Left chat successfully",
		StatusCode: fiber.StatusOK,
	})
}

func (handler *ChatHandler) JoinByName(c *fiber.Ctx) error {
	payload := new(req.JoinByNameRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	chat, err := handler.ChatUsecase.JoinByName(c.Context(), user, payload)
	if err != nil {
		handler.Logger.WithError(err).Warnf("User %s failed to join chat named %q", user.ID, payload.Name)
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ChatResponse]{
		Success:    true,
		Message:    fmt.Sprintf("Joined %s successfully", chat.Name),
		StatusCode: fiber.StatusOK,
		Data:       chat,
	})
}

func (handler *ChatHandler) SearchByName(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	chats, err := handler.ChatUsecase.SearchByName(c.Context(), user, c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		handler.Logger.WithError(err).Warn("Failed to search chats by name")
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.ChatResponse]{
		Success:    true,
		Message:    fmt.Sprintf("Found %d chats", len(chats)),
		StatusCode: fiber.StatusOK,
		Data:       chats,
	})
}

func (handler *ChatHandler) BulkCreate(c *fiber.Ctx) error {
	payload := new(req.BulkCreateRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	result, err := handler.ChatUsecase.BulkCreate(c.Context(), user, payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to bulk create chats")
		return err
	}
	return handler.bulkResult(c, result)
}

func (handler *ChatHandler) QuickGroups(c *fiber.Ctx) error {
	payload := new(req.QuickGroupsRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	result, err := handler.ChatUsecase.QuickGroups(c.Context(), user, payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to create quick groups %q", payload.Preset)
		return err
	}
	return handler.bulkResult(c, result)
}

func (handler *ChatHandler) bulkResult(c *fiber.Ctx, result res.BulkCreateResponse) error {
	summary := result.Summary
	handler.Logger.Infof("Bulk created %d of %d chats", summary.Created, summary.Requested)
	return c.Status(fiber.StatusCreated).JSON(res.CommonResponse[res.BulkCreateResponse]{
		Success:    summary.Created > 0,
		Message:    fmt.Sprintf("Created %d of %d chats, %d failed", summary.Created, summary.Requested, summary.Failed),
		StatusCode: fiber.StatusCreated,
		Data:       result,
	})
}
