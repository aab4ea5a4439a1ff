package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sahana-h/job-parser/internal/api/handlers"
	"github.com/sahana-h/job-parser/internal/api/middleware"
	"github.com/sahana-h/job-parser/internal/config"
	"github.com/sahana-h/job-parser/internal/services"
)

// Deps carries the constructed services into the router. The caller owns
// their lifecycle; the router only wires routes.
type Deps struct {
	UserService       *services.UserService
	CredentialService *services.CredentialService
	ReconcileService  *services.ReconcileService
	PipelineService   *services.PipelineService
	LogService        *services.LogService
	Scheduler         *services.SyncScheduler
}

// SetupRouter initializes and returns the Gin router with all routes configured
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSOrigins == "" || cfg.CORSOrigins == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.CORSOrigins, ",")
	}
	router.Use(cors.New(corsConfig))

	jwtManager := middleware.NewJWTManager(cfg.JWTSecret, middleware.DefaultTokenExpiry)

	authHandler := handlers.NewAuthHandler(deps.UserService, jwtManager, deps.LogService)
	applicationHandler := handlers.NewApplicationHandler(deps.ReconcileService, deps.LogService)
	credentialHandler := handlers.NewCredentialHandler(deps.CredentialService)
	scanHandler := handlers.NewScanHandler(deps.PipelineService, deps.Scheduler)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes (JWT required)
		protected := api.Group("")
		protected.Use(middleware.JWTMiddleware(jwtManager))
		{
			protected.GET("/auth/me", authHandler.GetCurrentUser)

			protected.GET("/applications", applicationHandler.ListApplications)
			protected.PATCH("/applications/:id/status", applicationHandler.UpdateStatus)
			protected.GET("/stats", applicationHandler.GetStats)
			protected.GET("/logs", applicationHandler.GetLogs)

			protected.POST("/scan", scanHandler.TriggerScan)

			protected.POST("/credential", credentialHandler.StoreCredential)
			protected.GET("/credential", credentialHandler.GetCredential)
			protected.DELETE("/credential", credentialHandler.DeleteCredential)
		}
	}

	return router
}
