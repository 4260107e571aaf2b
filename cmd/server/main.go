package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"planai/internal/config"
	"planai/internal/handlers"
	"planai/internal/llm"
	"planai/internal/logging"
	"planai/internal/middleware"
	"planai/internal/services"
	"planai/internal/store"
	"planai/internal/store/postgres"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting PlanAI Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Pick the store: PostgreSQL when configured, in-memory otherwise.
	var (
		st     store.Store
		pinger handlers.Pinger
	)
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		st = pg
		pinger = pg
		log.Println("✅ Connected to PostgreSQL")
	} else {
		st = store.NewMemoryStore()
		log.Println("⚠️  DATABASE_URL not set, using in-memory store (data is lost on restart)")
	}
	defer st.Close()

	// Prometheus metrics for AI orchestration
	services.InitMetrics()

	completer := llm.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout, cfg.AIRatePerSec)

	projectService := services.NewProjectService(st)
	epicService := services.NewEpicService(st)
	storyService := services.NewStoryService(st)
	taskService := services.NewTaskService(st)
	aiService := services.NewAIService(st, completer, cfg.AIMaxAttempts, cfg.AIBackoffBase)

	app := fiber.New(fiber.Config{
		AppName:      "PlanAI v1.0",
		ReadTimeout:  5 * time.Minute,  // AI calls retry with backoff; a slow provider must not kill the request
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
		BodyLimit:    1 * 1024 * 1024, // 1MB is plenty for planning payloads
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("planai")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	// Rate limiting: a global API tier plus a stricter tier for AI endpoints
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, AI=%d/min", rateLimitConfig.GlobalAPIMax, rateLimitConfig.AIMax)
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))
	aiLimiter := middleware.AIRateLimiter(rateLimitConfig)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(pinger)
	projectHandler := handlers.NewProjectHandler(projectService)
	epicHandler := handlers.NewEpicHandler(epicService)
	storyHandler := handlers.NewStoryHandler(storyService)
	taskHandler := handlers.NewTaskHandler(taskService)
	aiHandler := handlers.NewAIHandler(aiService)

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api/v1")

	projects := api.Group("/projects")
	projects.Get("/", projectHandler.List)
	projects.Post("/", projectHandler.Create)
	projects.Get("/:id", projectHandler.Get)
	projects.Get("/:id/detail", projectHandler.GetDetail)
	projects.Put("/:id", projectHandler.Update)
	projects.Patch("/:id", projectHandler.Update)
	projects.Delete("/:id", projectHandler.Delete)
	projects.Get("/:id/epics", epicHandler.ListByProject)
	projects.Post("/:id/epics", epicHandler.Create)
	projects.Post("/:id/chat", aiLimiter, aiHandler.Chat)
	projects.Post("/:id/generate", aiLimiter, aiHandler.Generate)
	projects.Get("/:id/conversations", aiHandler.ListConversations)
	projects.Get("/:id/specifications", aiHandler.ListSpecDocuments)
	projects.Get("/:id/specifications/latest", aiHandler.LatestSpecDocument)

	epics := api.Group("/epics")
	epics.Get("/:id", epicHandler.Get)
	epics.Put("/:id", epicHandler.Update)
	epics.Patch("/:id", epicHandler.Update)
	epics.Delete("/:id", epicHandler.Delete)
	epics.Get("/:id/stories", storyHandler.ListByEpic)
	epics.Post("/:id/stories", storyHandler.Create)

	stories := api.Group("/stories")
	stories.Get("/:id", storyHandler.Get)
	stories.Put("/:id", storyHandler.Update)
	stories.Patch("/:id", storyHandler.Update)
	stories.Delete("/:id", storyHandler.Delete)
	stories.Get("/:id/tasks", taskHandler.ListByStory)
	stories.Post("/:id/tasks", taskHandler.Create)

	tasks := api.Group("/tasks")
	tasks.Get("/:id", taskHandler.Get)
	tasks.Put("/:id", taskHandler.Update)
	tasks.Patch("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)

	conversations := api.Group("/conversations")
	conversations.Get("/:id/messages", aiHandler.ListMessages)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
