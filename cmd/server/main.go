package main

import (
	"context"
	"log"
	"os"

	"github.com/fixcity/api/internal/cache"
	"github.com/fixcity/api/internal/client"
	"github.com/fixcity/api/internal/config"
	"github.com/fixcity/api/internal/consolidate"
	"github.com/fixcity/api/internal/database"
	"github.com/fixcity/api/internal/handler"
	"github.com/fixcity/api/internal/middleware"
	"github.com/fixcity/api/internal/scheduler"
	"github.com/fixcity/api/internal/store"
	"github.com/fixcity/api/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis cache
	var redisCache *cache.RedisCache
	redisCache, err = cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		// Continue without Redis cache (fail-open)
	}

	// Initialize category validator
	categoryValidator, err := validator.NewCategoryValidator("data/categories.txt")
	if err != nil {
		log.Printf("Warning: Failed to load category validator: %v", err)
		// Continue without validator (fail-open)
	}

	// Consolidation pipeline
	reportStore := store.NewReportStore(db)
	opts := []consolidate.Option{}
	if cfg.NotifyURL != "" {
		opts = append(opts, consolidate.WithNotifier(client.NewNotifyClient(cfg.NotifyURL)))
	}
	consolidator := consolidate.New(reportStore, opts...)

	// Background sweep picks up duplicates the online path missed
	var sweepScheduler *scheduler.SweepScheduler
	if cfg.SweepEnabled {
		sweepScheduler = scheduler.NewSweepScheduler(consolidator, scheduler.SweepConfig{
			Interval: cfg.SweepInterval,
		})
		go sweepScheduler.Start(context.Background())
		log.Println("Background consolidation sweep started")
	}

	googleConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(db, cfg.JWTSecret, googleConfig, cfg.FrontendURL, cfg.OfficerEmails)
	reportHandler := handler.NewReportHandler(db, redisCache, consolidator, categoryValidator)
	officerHandler := handler.NewOfficerHandler(db, redisCache)

	// Setup router
	r := gin.Default()
	r.Use(middleware.MetricsMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Sweep status
	r.GET("/sweep/status", func(c *gin.Context) {
		if sweepScheduler != nil {
			c.JSON(200, sweepScheduler.GetStatus())
		} else {
			c.JSON(200, gin.H{"enabled": false, "message": "Sweep is disabled"})
		}
	})

	// Auth routes
	r.GET("/auth/google", authHandler.GoogleAuth)
	r.GET("/auth/google/callback", authHandler.GoogleCallback)
	r.POST("/auth/refresh", authHandler.RefreshToken)
	r.POST("/auth/logout", authHandler.Logout)
	r.GET("/auth/me", middleware.AuthMiddleware(cfg.JWTSecret), authHandler.Me)

	// API routes
	api := r.Group("/api")
	{
		// Citizen surface
		api.POST("/reports", middleware.AuthMiddleware(cfg.JWTSecret), reportHandler.Submit)
		api.GET("/reports/mine", middleware.AuthMiddleware(cfg.JWTSecret), reportHandler.ListMine)
		api.GET("/reports/:id", middleware.OptionalAuthMiddleware(cfg.JWTSecret), reportHandler.Get)

		// Officer surface
		officer := api.Group("/officer", middleware.OfficerMiddleware(cfg.JWTSecret, cfg.OfficerEmails))
		{
			officer.GET("/reports", officerHandler.ListReports)
			officer.PATCH("/reports/:id/status", officerHandler.UpdateStatus)
			officer.PATCH("/reports/:id/assign", officerHandler.AssignTechnician)
			officer.GET("/reports/:id/merges", officerHandler.ListMergeLogs)
			officer.GET("/dashboard", officerHandler.GetStats)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Printf("API server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
