package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"scorely-session-svc/src/clients"
	"scorely-session-svc/src/internal/auth"
	"scorely-session-svc/src/internal/dependency"
	"scorely-session-svc/src/internal/middleware"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupAuthRoutes(router, deps)
	setupPublicRoutes(router, deps)
	setupProtectedRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		brokerStatus := "disconnected"
		if deps.Broker.Client.IsConnected() {
			brokerStatus = "ok"
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"broker":    brokerStatus,
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "operational",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"components": gin.H{
				"database": gin.H{
					"mongodb": getStatus(isMongoConnected(mongodb, c)),
					"redis":   getStatus(isRedisConnected(redisClient.Client, c)),
				},
				"services": gin.H{
					"dispatcher": "operational",
					"pairing":    "operational",
					"history":    "operational",
				},
			},
		})
	})
}

func setupAuthRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.POST("/auth/login", deps.AuthHandler.Login)
	router.GET("/auth/verify", deps.AuthHandler.Verify)
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	handler := deps.HistoryHandler

	api := router.Group("/api/v1")
	{
		api.GET("/matches", handler.GetMatchHistory)
		api.GET("/matches/:id", handler.GetMatchByID)
		api.GET("/locations", handler.GetLocations)
		api.GET("/stats/:locationId", handler.GetLocationStats)
		api.GET("/sessions/:id", deps.LiveHandler.GetSession)
	}
}

func setupProtectedRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := middleware.NewAuthMiddleware(deps.AuthService)

	api := router.Group("/api/v1")
	{
		api.POST("/sessions",
			authMiddleware.RequireAuth(),
			authMiddleware.RequireRole(auth.RoleController),
			deps.LiveHandler.CreateSession)

		api.POST("/locations",
			authMiddleware.RequireAuth(),
			authMiddleware.RequireRole(auth.RoleAdmin),
			deps.HistoryHandler.CreateLocation)

		api.DELETE("/matches/:id",
			authMiddleware.RequireAuth(),
			authMiddleware.RequireRole(auth.RoleAdmin),
			deps.HistoryHandler.DeleteMatch)
	}
}

func isMongoConnected(mongodb *clients.MongoDB, c *gin.Context) bool {
	if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
		return false
	}
	return true
}

func isRedisConnected(redisClient *redis.Client, c *gin.Context) bool {
	if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
		return false
	}
	return true
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

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
