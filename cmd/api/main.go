package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pitchcraft/pitchcraft-api/internal/auth"
	"github.com/pitchcraft/pitchcraft-api/internal/config"
	"github.com/pitchcraft/pitchcraft-api/internal/database"
	"github.com/pitchcraft/pitchcraft-api/internal/handlers"
	"github.com/pitchcraft/pitchcraft-api/internal/services"
	"github.com/pitchcraft/pitchcraft-api/internal/workflow"
)

func main() {
	// 1. Configuration (.env + environment)
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// 2. Database Connection
	db := database.Connect(cfg.DatabaseDSN)

	// 3. Core Services
	pitchService := services.NewPitchService(db)
	creditService := services.NewCreditService(db)
	callbackService := services.NewCallbackService(db)

	wfClient := workflow.NewClient(cfg.WorkflowAPIURL, cfg.WorkflowAPIKey)
	generationService := services.NewGenerationService(
		db, wfClient, creditService,
		cfg.CallbackBaseURL, cfg.PitchDispatchTimeout, cfg.GuidanceDispatchTimeout,
	)

	// 4. Optional AI role extraction
	var llmService *services.LLMService
	if cfg.GeminiAPIKey != "" {
		var err error
		llmService, err = services.NewLLMService(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("⚠️  Role extraction disabled: %v", err)
		} else {
			log.Println("✅ Gemini client connected.")
		}
	} else {
		log.Println("⚠️  GEMINI_API_KEY not set, role extraction disabled.")
	}

	// 5. Background reaper for generations whose callback never arrived
	generationService.StartReaper(cfg.ReaperInterval, cfg.ReaperMaxAge)

	// 6. Handlers
	pitchHandler := handlers.NewPitchHandler(pitchService, creditService)
	generationHandler := handlers.NewGenerationHandler(generationService, callbackService, cfg.CallbackSecret)
	roleHandler := handlers.NewRoleHandler(llmService)

	// 7. Router & CORS
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true // For development only
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// 8. Routes
	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)

		// Engine callback lives outside the user-auth group; it is guarded
		// by the shared secret when one is configured.
		api.POST("/webhooks/generation", generationHandler.Callback)

		authed := api.Group("")
		authed.Use(auth.RequireUser(db, cfg.JWTSecret))
		{
			authed.POST("/pitches", pitchHandler.CreatePitch)
			authed.GET("/pitches", pitchHandler.ListPitches)
			authed.GET("/pitches/:id", pitchHandler.GetPitch)
			authed.PUT("/pitches/:id", pitchHandler.UpdatePitch)
			authed.DELETE("/pitches/:id", pitchHandler.DeletePitch)
			authed.GET("/pitches/:id/events", pitchHandler.ListEvents)

			authed.POST("/pitches/:id/generate", generationHandler.GeneratePitch)
			authed.POST("/pitches/:id/guidance", generationHandler.GenerateGuidance)
			authed.GET("/generations/status", generationHandler.Status)

			authed.POST("/roles/extract", roleHandler.ExtractRole)
			authed.GET("/credits", pitchHandler.GetCredits)
		}
	}

	log.Printf("🚀 Server starting on port %s...", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
