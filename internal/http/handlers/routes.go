package handlers

import (
	"wainbox/internal/app"
	"wainbox/internal/http/middleware"
	"wainbox/internal/webhook"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all API routes
func SetupRoutes(api *echo.Group, services *app.Services) {
	wsHandler := NewWebSocketHandler(services.AgentRepo, services.AuthService)

	// Webhooks (public, verified by the provider's token handshake)
	webhookHandler := webhook.NewHandler(
		services.ContactRepo,
		services.ConversationRepo,
		services.MessageRepo,
		services.WhatsApp,
		wsHandler,
		services.Config,
	)
	api.GET("/webhook/whatsapp", webhookHandler.Verify)
	api.POST("/webhook/whatsapp", webhookHandler.Receive)

	// Auth routes (no authentication required)
	authHandler := NewAuthHandler(services.AuthService, services.AgentRepo)
	api.POST("/auth/login", authHandler.Login)

	// WebSocket endpoint (authenticates via query parameter)
	api.GET("/ws", wsHandler.HandleWebSocket)

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(services.AuthService))

	protected.GET("/auth/me", authHandler.Me)

	// Conversations
	conversationHandler := NewConversationHandler(services.ConversationRepo, services.AgentRepo, wsHandler)
	conversations := protected.Group("/conversations")
	conversations.GET("", conversationHandler.List)
	conversations.GET("/:id", conversationHandler.Get)
	conversations.PUT("/:id/assign", conversationHandler.Assign)
	conversations.PUT("/:id/status", conversationHandler.UpdateStatus)
	conversations.POST("/:id/read", conversationHandler.MarkRead)

	// Messages
	messageHandler := NewMessageHandler(
		services.MessageRepo,
		services.ConversationRepo,
		services.ContactRepo,
		services.WhatsApp,
		services.MediaStore,
		wsHandler,
	)
	conversations.GET("/:id/messages", messageHandler.List)
	conversations.POST("/:id/messages", messageHandler.Send)
	conversations.POST("/:id/messages/template", messageHandler.SendTemplate)
	conversations.POST("/:id/messages/media", messageHandler.SendMedia)
	conversations.POST("/:id/notes", messageHandler.AddNote)
	protected.POST("/messages/send", messageHandler.SendToPhone)

	// Media proxy
	mediaHandler := NewMediaHandler(services.MessageRepo, services.MediaCache, services.MediaStore, services.WhatsApp)
	protected.GET("/media/:id", mediaHandler.Get)

	// Templates
	templateHandler := NewTemplateHandler(services.TemplateRepo, services.WhatsApp)
	protected.GET("/templates", templateHandler.List)
	protected.POST("/templates/sync", templateHandler.Sync)

	// Agents
	agentHandler := NewAgentHandler(services.AgentRepo, services.AuthService)
	protected.GET("/agents", agentHandler.List)

	// Admin routes
	admin := protected.Group("", middleware.AdminOnly())
	admin.POST("/auth/register", authHandler.Register)
	admin.PUT("/agents/:id", agentHandler.Update)
	admin.DELETE("/agents/:id", agentHandler.Delete)

	settingsHandler := NewSettingsHandler(services.Config, services.SettingRepo, services.TemplateRepo, services.WhatsApp)
	admin.GET("/settings", settingsHandler.Get)
	admin.PUT("/settings", settingsHandler.Update)
	admin.POST("/settings/test-connection", settingsHandler.TestConnection)

	// Health check
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
