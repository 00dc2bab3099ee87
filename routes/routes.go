package routes

import (
	"festival-chat-api/handler"
	"festival-chat-api/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type ConfigRoute struct {
	*fiber.App
	*middleware.Middleware
	*handler.AuthHandler
	*handler.UserHandler
	*handler.ChatHandler
	*handler.MessageHandler
	*handler.HealthHandler
	*handler.WebSocketHandler
}

func (rc *ConfigRoute) GetRoute() {
	rc.App.Get("/health", rc.HealthHandler.Health)
	rc.GetPublicRoute()
	rc.GetProtectedRoute()
	rc.GetWebSocketRoute()
}

func (rc *ConfigRoute) GetPublicRoute() {
	app := rc.App.Group("/api/v1/auth", rc.Middleware.AuthLimiter())
	app.Post("/register", rc.AuthHandler.RegisterUser)
	app.Post("/login", rc.AuthHandler.LoginUser)
	app.Post("/refresh", rc.AuthHandler.RefreshToken)
}

func (rc *ConfigRoute) GetProtectedRoute() {
	app := rc.App.Group("/api/v1", rc.Middleware.JWTProtected, rc.Middleware.ExtractUser, rc.Middleware.GeneralLimiter())

	app.Post("/auth/logout", rc.AuthHandler.Logout)
	app.Post("/auth/logout-all", rc.AuthHandler.LogoutAll)
	app.Get("/auth/me", rc.AuthHandler.Me)
	app.Put("/auth/me", rc.AuthHandler.UpdateMe)
	app.Put("/auth/change-password", rc.AuthHandler.ChangePassword)

	app.Get("/users", rc.Middleware.RequireAdmin, rc.UserHandler.GetAllUsers)
	app.Get("/users/online-count", rc.UserHandler.OnlineCount)
	app.Get("/users/active-count", rc.UserHandler.ActiveCount)
	app.Put("/users/:id/role", rc.Middleware.RequireAdmin, rc.UserHandler.UpdateRole)
	app.Put("/users/:id/status", rc.Middleware.RequireAdmin, rc.UserHandler.UpdateStatus)

	app.Get("/chats", rc.ChatHandler.GetAllChat)
	app.Post("/chats", rc.ChatHandler.CreateChat)
	app.Get("/chats/search-by-name", rc.ChatHandler.SearchByName)
	app.Post("/chats/join-by-name", rc.ChatHandler.JoinByName)
	app.Post("/chats/bulk-create", rc.Middleware.RequireAdmin, rc.ChatHandler.BulkCreate)
	app.Post("/chats/quick-groups", rc.Middleware.RequireAdmin, rc.ChatHandler.QuickGroups)
	app.Get("/chats/:id", rc.ChatHandler.GetChat)
	app.Put("/chats/:id", rc.ChatHandler.UpdateChat)
	app.Delete("/chats/:id", rc.ChatHandler.DeleteChat)
	app.Post("/chats/:id/participants", rc.ChatHandler.AddParticipant)
	app.Delete("/chats/:id/participants/:userId", rc.ChatHandler.RemoveParticipant)
	app.Post("/chats/:id/join", rc.ChatHandler.JoinChat)
	app.Post("/chats/:id/leave", rc.ChatHandler.LeaveChat)

	app.Get("/messages/message/:id", rc.MessageHandler.GetMessage)
	app.Put("/messages/message/:id", rc.MessageHandler.EditMessage)
	app.Delete("/messages/message/:id", rc.MessageHandler.DeleteMessage)
	app.Post("/messages/message/:id/reactions", rc.MessageHandler.ReactToMessage)
	app.Get("/messages/:chatId", rc.MessageHandler.GetMessages)
	app.Post("/messages/:chatId", rc.Middleware.MessageLimiter(), rc.MessageHandler.SendMessage)
	app.Put("/messages/:chatId/read", rc.MessageHandler.MarkAsRead)
	app.Get("/messages/:chatId/search", rc.MessageHandler.SearchMessages)
}

func (rc *ConfigRoute) GetWebSocketRoute() {
	rc.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, rc.Middleware.WebSocketAuth)

	rc.App.Get("/ws", websocket.New(rc.WebSocketHandler.HandleWebSocket))
}
