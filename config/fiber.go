package config

import (
	"errors"

	"festival-chat-api/apperror"
	"festival-chat-api/config/common"
	"festival-chat-api/dto/res"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func NewFiber(cfg *common.Config, log *logrus.Logger) *fiber.App {
	appName := cfg.GetAppConfig()
	return fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		AppName:       appName,
		ErrorHandler:  NewErrorHandler(cfg.IsDevelopment(), log),
	})
}

// NewErrorHandler renders every error returned by a handler as an ErrorResponse. The
// cause text is only exposed in development.
func NewErrorHandler(development bool, log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		response := res.ErrorResponse{
			Success:    false,
			Message:    "Internal server error",
			StatusCode: fiber.StatusInternalServerError,
		}

		var fiberErr *fiber.Error
		if appErr, ok := apperror.As(err); ok {
			response.StatusCode = appErr.Kind.StatusCode()
			response.Message = appErr.Message
			response.Code = appErr.Code
			response.Errors = appErr.Fields
			response.Details = appErr.Details
			if appErr.Kind == apperror.KindService {
				response.Message = "Service temporarily unavailable, please try again"
			}
		} else if errors.As(err, &fiberErr) {
			response.StatusCode = fiberErr.Code
			response.Message = fiberErr.Message
		}

		if response.StatusCode >= fiber.StatusInternalServerError {
			log.WithError(err).Errorf("%s %s failed", c.Method(), c.Path())
		}
		if development {
			response.Error = err.Error()
		}
		return c.Status(response.StatusCode).JSON(response)
	}
}
