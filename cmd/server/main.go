package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evrenbal/voicechat/internal/billing"
	"github.com/evrenbal/voicechat/internal/chat"
	"github.com/evrenbal/voicechat/internal/config"
	"github.com/evrenbal/voicechat/internal/database"
	"github.com/evrenbal/voicechat/internal/handlers"
	"github.com/evrenbal/voicechat/internal/llm"
	"github.com/evrenbal/voicechat/internal/mailer"
	"github.com/evrenbal/voicechat/internal/routes"
	"github.com/evrenbal/voicechat/internal/services"
	"github.com/evrenbal/voicechat/internal/store"
	"github.com/evrenbal/voicechat/internal/tts"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting voicechat", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()

	// ─── Database ────────────────────────────────────────────────────────
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	// ─── Stores ──────────────────────────────────────────────────────────
	userStore := store.NewUserStore(db)
	chatStore := store.NewChatStore(db)
	memoryStore := store.NewMemoryStore(db)
	billingStore := store.NewBillingStore(db)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := billingStore.SeedDefaultPlans(seedCtx); err != nil {
		slog.Error("Plan seeding failed", "error", err)
	}
	cancel()

	// ─── External clients ────────────────────────────────────────────────
	mail := mailer.New(cfg)
	gateway := llm.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey)
	speechClient := tts.NewSpeechClient(cfg.TTSAPIURL, cfg.TTSVoicesURL, cfg.TTSAPIKey, cfg.TTSModel)
	cloneClient := tts.NewCloneClient(cfg.CloneAPIURL, cfg.CloneAPIKey, cfg.CloneProvider)
	paystack := billing.NewClient(cfg.PaystackAPIURL, cfg.PaystackSecretKey)

	// ─── Chat orchestrator ───────────────────────────────────────────────
	orchestrator := chat.NewOrchestrator(chatStore, memoryStore, gateway, chat.Config{
		DefaultModel: cfg.DefaultModel,
		Persona:      cfg.ChatPersona,
		WindowSize:   cfg.ChatWindowSize,
		Temperature:  cfg.ChatTemperature,
		ExtractFacts: true,
	})

	// ─── Background services ─────────────────────────────────────────────
	reminder := services.NewRenewalReminder(billingStore, mail)
	reminder.Start()

	// ─── Handlers ────────────────────────────────────────────────────────
	systemHandler := handlers.NewSystemHandler()
	authHandler := handlers.NewAuthHandler(cfg, userStore, mail)
	chatHandler := handlers.NewChatHandler(orchestrator)
	ttsHandler := handlers.NewTTSHandler(cfg, userStore, speechClient, cloneClient)
	billingHandler := handlers.NewBillingHandler(cfg, billingStore, userStore, paystack, mail)

	// ─── Fiber App ───────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "voicechat v" + handlers.Version,
		ServerHeader: "voicechat",
		BodyLimit:    25 * 1024 * 1024, // voice samples
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ──────────────────────────────────────────────────────────
	routes.Setup(app, cfg, systemHandler, authHandler, chatHandler, ttsHandler, billingHandler)

	// ─── Graceful Shutdown ───────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down voicechat...")

		reminder.Stop()

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ───────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("voicechat listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
