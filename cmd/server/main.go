package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"npcbrain/internal/blackboard"
	"npcbrain/internal/config"
	"npcbrain/internal/handler"
	"npcbrain/internal/repository"
	"npcbrain/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("NPC Brain - LLM intent pipeline")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection (optional)
	var repo *repository.PostgresRepository
	if cfg.PostgreSQL.Enabled {
		repo, err = repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer repo.Close()
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to ensure database schema: %v", err)
		}
		log.Println("✅ Connected to PostgreSQL database")
	} else {
		log.Println("⚠️  No database configured - action history and utterance recall disabled")
	}

	// Initialize Gemini client
	gemini := service.NewGeminiClient(&cfg.Gemini)
	if cfg.Gemini.Enabled {
		log.Printf("✅ Gemini client initialized")
		log.Printf("   - API Base: %s", cfg.Gemini.APIBase)
		log.Printf("   - Model: %s", cfg.Gemini.Model)
		log.Printf("   - Embedding model: %s", cfg.Gemini.EmbeddingModel)
		log.Printf("   - Temperature: %.2f", cfg.Gemini.Temperature)
		log.Printf("   - Max output tokens: %d", cfg.Gemini.MaxOutputTokens)
	} else {
		log.Println("⚠️  Gemini is disabled - only /actions/process will work")
		log.Println("   Set GEMINI_API_KEY environment variable to enable generation")
	}

	// Initialize services
	boards := blackboard.NewManager()
	registry := service.NewNavPointRegistry()
	ranker := service.NewRecallRanker(0.7, 0.3)

	var actionRepo service.ActionRepository
	if repo != nil {
		actionRepo = repo
	}
	pipeline := service.NewPipeline(gemini, boards, registry, actionRepo, cfg.Pipeline.ConfidenceThreshold)

	log.Println("✅ Services initialized")
	log.Printf("   - Confidence threshold: %.2f", cfg.Pipeline.ConfidenceThreshold)

	// Initialize handlers
	intentHandler := handler.NewIntentHandler(pipeline)
	navPointHandler := handler.NewNavPointHandler(registry)
	utteranceHandler := handler.NewUtteranceHandler(gemini, repo, ranker)
	feedbackHandler := handler.NewFeedbackHandler(repo)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "npc-intent-pipeline",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Action pipeline endpoints
		apiV1.POST("/intent", intentHandler.PostIntent)
		apiV1.POST("/actions/process", intentHandler.ProcessResponse)
		apiV1.GET("/prompt", intentHandler.GetSystemPrompt)

		// Blackboard endpoints
		apiV1.GET("/blackboard/:agent", intentHandler.GetBlackboard)
		apiV1.DELETE("/blackboard/:agent", intentHandler.ClearBlackboard)

		// Nav point registry
		apiV1.POST("/navpoints", navPointHandler.Register)
		apiV1.POST("/navpoints/batch", navPointHandler.RegisterBatch)
		apiV1.GET("/navpoints", navPointHandler.List)

		// Utterance memory
		apiV1.POST("/utterances/recall", utteranceHandler.Recall)

		// Feedback endpoint
		apiV1.POST("/feedback", feedbackHandler.Submit)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API root: http://localhost:%d/api/v1", cfg.Server.Port)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
