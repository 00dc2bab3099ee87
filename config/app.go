package config

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"festival-chat-api/access"
	"festival-chat-api/config/common"
	"festival-chat-api/config/logger"
	"festival-chat-api/handler"
	"festival-chat-api/middleware"
	"festival-chat-api/realtime"
	"festival-chat-api/repository"
	"festival-chat-api/routes"
	"festival-chat-api/security"
	"festival-chat-api/usecase"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AppConfig struct {
	*fiber.App
	*validator.Validate
	*logrus.Logger
	*gorm.DB
	*common.Config
	Log    *logger.AppLogger
	Broker realtime.Broker
}

// Components exposes the long lived pieces App wired, for shutdown and tests.
type Components struct {
	Hub    *realtime.Hub
	Fanout *realtime.Fanout
	JWT    *security.JWT
	Policy *access.Policy
}

func RunServer() {
	newConfig := common.NewViper()
	log := NewLogger(newConfig)
	appLog := logger.NewLogger(newConfig.GetLogDir())
	app := NewFiber(newConfig, log)

	newDB, err := NewDB(newConfig, appLog)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	broker, err := NewBroker(newConfig, appLog)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect realtime broker")
	}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: newConfig.GetCorsOrigins(),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	if _, err := App(&AppConfig{
		App:      app,
		Validate: NewValidator(),
		Logger:   log,
		DB:       newDB.GetDB(),
		Config:   newConfig,
		Log:      appLog,
		Broker:   broker,
	}); err != nil {
		log.WithError(err).Fatal("Failed to wire application")
	}

	go func() {
		if err := app.Listen(":" + newConfig.GetPort()); err != nil {
			log.WithError(err).Errorf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Failed to shut down server")
	}
	if err := broker.Close(); err != nil {
		log.WithError(err).Error("Failed to close realtime broker")
	}
	if err := newDB.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}
}

func App(aC *AppConfig) (*Components, error) {
	policy := access.NewPolicy(aC.GetBootstrapAdminEmail(), access.ListingPolicy(aC.GetChatListingPolicy()))
	guard := repository.NewGuard(aC.GetDatabaseTimeout(), aC.Log)
	newJWT := security.NewJWT(aC.Config)
	password := security.NewPassword(aC.GetBcryptCost())

	newAuthRepository := repository.NewAuthRepository()
	newUserRepository := repository.NewUserRepository()
	newChatRepository := repository.NewChatRepository()
	newMessageRepository := repository.NewMessageRepository()

	admins := usecase.NewAdminDirectory(newUserRepository, aC.DB, policy, guard)
	hub := realtime.NewHub(aC.Log)
	fanout, err := realtime.NewFanout(hub, aC.Broker, policy, admins, aC.Log)
	if err != nil {
		return nil, err
	}

	newAuthUsecase := usecase.NewAuthUsecase(newAuthRepository, newUserRepository, aC.Validate, aC.DB, aC.Log, newJWT, password, policy, guard)
	newUserUsecase := usecase.NewUserUsecase(newUserRepository, aC.Validate, aC.DB, aC.Log, policy, guard, hub)
	newChatUsecase := usecase.NewChatUsecase(newChatRepository, newUserRepository, aC.Validate, aC.DB, aC.Log, policy, guard, admins, fanout)
	newMessageUsecase := usecase.NewMessageUsecase(newMessageRepository, newChatRepository, aC.Validate, aC.DB, aC.Log, policy, guard, newChatUsecase, fanout)

	newMiddleware := middleware.NewMiddleware(aC.Config, newJWT, newUserUsecase, policy, aC.Logger)

	route := routes.ConfigRoute{
		App:              aC.App,
		Middleware:       newMiddleware,
		AuthHandler:      handler.NewAuthHandler(newAuthUsecase, newUserUsecase, aC.Logger),
		UserHandler:      handler.NewUserHandler(newUserUsecase, aC.Logger),
		ChatHandler:      handler.NewChatHandler(newChatUsecase, aC.Logger),
		MessageHandler:   handler.NewMessageHandler(newMessageUsecase, aC.Logger),
		HealthHandler:    handler.NewHealthHandler(aC.DB, hub, aC.Logger),
		WebSocketHandler: handler.NewWebSocketHandler(aC.Logger, hub, fanout, newChatUsecase, newMessageUsecase, newUserUsecase),
	}
	route.GetRoute()

	return &Components{Hub: hub, Fanout: fanout, JWT: newJWT, Policy: policy}, nil
}
