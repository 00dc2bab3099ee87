package handler

import (
	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/middleware"
	"festival-chat-api/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type MessageHandler struct {
	usecase.MessageUsecase
	*logrus.Logger
}

func NewMessageHandler(messageUsecase usecase.MessageUsecase, logger *logrus.Logger) *MessageHandler {
	return &MessageHandler{MessageUsecase: messageUsecase, Logger: logger}
}

func (handler *MessageHandler) GetMessages(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	chatID := c.Params("chatId")

	page, err := handler.MessageUsecase.GetMessages(c.Context(), user, chatID, queryInt(c, "page", 1), queryInt(c, "limit", usecase.DefaultPageSize))
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to get messages of chat %s", chatID)
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.MessagePageResponse]{
		Success:    true,
		Message:    "Successfully to Get Messages",
		StatusCode: fiber.StatusOK,
		Data:       page,
	})
}

func (handler *MessageHandler) SendMessage(c *fiber.Ctx) error {
	payload := new(req.SendMessageRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	chatID := c.Params("chatId")

	message, err := handler.MessageUsecase.SendMessage(c.Context(), user, chatID, payload)
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to send message to chat %s", chatID)
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res.CommonResponse[res.MessageResponse]{
		Success:    true,
		Message:    "Message sent successfully",
		StatusCode: fiber.StatusCreated,
		Data:       message,
	})
}

func (handler *MessageHandler) MarkAsRead(c *fiber.Ctx) error {
	payload := new(req.MarkReadRequest)
	if len(c.Body()) > 0 {
		if err := parseBody(c, payload); err != nil {
			return err
		}
	}
	user := middleware.CurrentUser(c)
	receipt, err := handler.MessageUsecase.MarkMessagesAsRead(c.Context(), user, c.Params("chatId"), payload)
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to mark messages of chat %s as read", c.Params("chatId"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ReadReceiptResponse]{
		Success:    true,
		Message:    "Messages marked as read",
		StatusCode: fiber.StatusOK,
		Data:       receipt,
	})
}

func (handler *MessageHandler) SearchMessages(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	messages, err := handler.MessageUsecase.SearchMessages(c.Context(), user, c.Params("chatId"), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to search messages of chat %s", c.Params("chatId"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.MessageResponse]{
		Success:    true,
		Message:    "Successfully to Search Messages",
		StatusCode: fiber.StatusOK,
		Data:       messages,
	})
}

func (handler *MessageHandler) GetMessage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	message, err := handler.MessageUsecase.GetMessage(c.Context(), user, c.Params("id"))
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to get message %s", c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.MessageResponse]{
		Success:    true,
		Message:    "Successfully to Get Message",
		StatusCode: fiber.StatusOK,
		Data:       message,
	})
}

func (handler *MessageHandler) EditMessage(c *fiber.Ctx) error {
	payload := new(req.EditMessageRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	message, err := handler.MessageUsecase.EditMessage(c.Context(), user, c.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to edit message %s", c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.MessageResponse]{
		Success:    true,
		Message:    "Message edited successfully",
		StatusCode: fiber.StatusOK,
		Data:       message,
	})
}

func (handler *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := handler.MessageUsecase.DeleteMessage(c.Context(), user, c.Params("id")); err != nil {
		handler.Logger.WithError(err).Warnf("Failed to delete message %s", c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Success:    true,
		Message:    "Message deleted successfully",
		StatusCode: fiber.StatusOK,
	})
}

func (handler *MessageHandler) ReactToMessage(c *fiber.Ctx) error {
	payload := new(req.ReactionRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	reaction, err := handler.MessageUsecase.ReactToMessage(c.Context(), user, c.Params("id"), payload)
	if err != nil {
		handler.Logger.WithError(err).Warnf("Failed to react to message %s", c.Params("id"))
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.ReactionResponse]{
		Success:    true,
		Message:    "Reaction updated",
		StatusCode: fiber.StatusOK,
		Data:       reaction,
	})
}
