package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopchat/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/style-config.json", handler.GetStyleConfig)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/sessions", handler.CreateSession)

		chat := v1.Group("/chat")
		{
			chat.POST("", handler.SendMessage)
			chat.GET("/:sessionId", handler.GetHistory)
			chat.POST("/llm", handler.ChatLLM)
			chat.POST("/llm_search", handler.LLMSearch)
		}

		shopify := v1.Group("/shopify")
		{
			shopify.GET("/store", handler.StoreInfo)
			shopify.GET("/products", handler.ListProducts)
		}

		v1.POST("/cart/add", handler.AddToCart)
		v1.GET("/widget/config", handler.GetWidgetConfig)
	}

	return router
}
