package handler

import (
	"time"

	"festival-chat-api/dto/res"
	"festival-chat-api/realtime"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type HealthResponse struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	OnlineUsers int       `json:"onlineUsers"`
	Uptime      string    `json:"uptime"`
	Timestamp   time.Time `json:"timestamp"`
}

type HealthHandler struct {
	*gorm.DB
	Hub *realtime.Hub
	*logrus.Logger
	startedAt time.Time
}

func NewHealthHandler(db *gorm.DB, hub *realtime.Hub, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{DB: db, Hub: hub, Logger: logger, startedAt: time.Now()}
}

func (handler *HealthHandler) Health(c *fiber.Ctx) error {
	health := HealthResponse{
		Status:      "ok",
		Database:    "ok",
		OnlineUsers: handler.Hub.OnlineCount(),
		Uptime:      time.Since(handler.startedAt).Round(time.Second).String(),
		Timestamp:   time.Now(),
	}
	status := fiber.StatusOK

	sqlDB, err := handler.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Context())
	}
	if err != nil {
		handler.Logger.WithError(err).Error("Health check failed to reach the database")
		health.Status = "degraded"
		health.Database = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(res.CommonResponse[HealthResponse]{
		Success:    status == fiber.StatusOK,
		Message:    "Festival chat API is " + health.Status,
		StatusCode: status,
		Data:       health,
	})
}
