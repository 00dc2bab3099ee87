package handler

import (
	"strconv"

	"festival-chat-api/apperror"
	"github.com/gofiber/fiber/v2"
)

func parseBody(c *fiber.Ctx, payload interface{}) error {
	if err := c.BodyParser(payload); err != nil {
		return apperror.Validation("Invalid request body", apperror.FieldError{Message: err.Error()})
	}
	return nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return value
}
