package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"wellmind-session-svc/src/internal/dependency"
	"wellmind-session-svc/src/internal/middleware"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupSessionRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Info("Health check endpoint requested")

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	})
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
			"state":       deps.SessionManager.State(),
		})
	})

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", deps.SessionHandler.Login)
		auth.POST("/register", deps.SessionHandler.Register)
		auth.POST("/logout", deps.SessionHandler.Logout)
	}
}

func setupSessionRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := middleware.NewAuthMiddleware(
		deps.Config.Security.JwtKey,
		deps.SessionManager,
		deps.Tracker,
	)

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware.RequireSession())
	{
		protected.GET("/session", deps.SessionHandler.GetSession)
		protected.PATCH("/session/timeout", deps.SessionHandler.UpdateTimeout)
		protected.PATCH("/session/sponsor", deps.SessionHandler.UpdateSponsor)

		protected.POST("/chat/:mode/messages", deps.ChatHandler.SendMessage)
		protected.GET("/chat/:mode/messages", deps.ChatHandler.ListMessages)
		protected.DELETE("/chat/messages", deps.ChatHandler.ClearThreads)

		protected.POST("/activity/touch", deps.ActivityHandler.Touch)
	}
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}
