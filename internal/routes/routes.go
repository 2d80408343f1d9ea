package routes

import (
	"github.com/evrenbal/voicechat/internal/config"
	"github.com/evrenbal/voicechat/internal/handlers"
	"github.com/evrenbal/voicechat/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	systemHandler *handlers.SystemHandler,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	ttsHandler *handlers.TTSHandler,
	billingHandler *handlers.BillingHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)

	app.Post("/api/auth/register", authHandler.Register)
	app.Get("/api/auth/verify-email", authHandler.VerifyEmail)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)
	app.Post("/api/auth/forgot-password", authHandler.ForgotPassword)
	app.Post("/api/auth/verify-otp", authHandler.VerifyOTP)
	app.Post("/api/auth/reset-password", authHandler.ResetPassword)

	// Gateway redirects the payer here after checkout, unauthenticated.
	app.Get("/api/billing/verify", billingHandler.VerifyPayment)

	// ─── Protected routes ────────────────────────────────────────────────
	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))

	// Account
	api.Get("/auth/me", authHandler.Me)
	api.Put("/auth/profile", authHandler.UpdateProfile)

	// Chats
	api.Get("/chats", chatHandler.ListChats)
	api.Post("/chats", chatHandler.CreateChat)
	api.Get("/chats/:id", chatHandler.GetChat)
	api.Post("/chats/send", chatHandler.SendMessage)
	api.Put("/chats/:id/rename", chatHandler.RenameChat)
	api.Post("/chats/:id/pin", chatHandler.TogglePin)
	api.Delete("/chats/:id", chatHandler.DeleteChat)
	api.Post("/chats/:id/regenerate", chatHandler.Regenerate)
	api.Put("/messages/:id", chatHandler.EditMessage)
	api.Delete("/messages/:id", chatHandler.DeleteMessage)

	// Speech
	api.Get("/tts/voices", ttsHandler.Voices)
	api.Post("/tts/speak", ttsHandler.Speak)
	api.Post("/tts/preferred-voice", ttsHandler.SavePreferredVoice)
	api.Post("/tts/clone", ttsHandler.CloneVoice)

	// Billing
	api.Get("/billing/plans", billingHandler.ListPlans)
	api.Post("/billing/initialize", billingHandler.InitializePayment)
	api.Get("/billing/history", billingHandler.SubscriptionHistory)
}
