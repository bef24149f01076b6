package router

import (
	"github.com/jiancai-next/internal/config"
	"github.com/jiancai-next/internal/http/handlers/view"
	"github.com/jiancai-next/internal/http/response"
	"github.com/jiancai-next/internal/logger"

	"github.com/gin-gonic/gin"
)

// SetupRouter 构建本地门面路由
func SetupRouter(cfg *config.Config, handler *view.Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggerMiddleware(logger.Z()))
	engine.Use(CORSMiddleware(cfg.CORS))

	engine.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	{
		api.GET("/cart", handler.GetCart)
		api.POST("/cart/items", handler.AddItem)
		api.PUT("/cart/items/:item_uid", handler.UpdateItem)
		api.DELETE("/cart/items/:item_uid", handler.RemoveItem)
		api.POST("/cart/refresh", handler.Refresh)

		api.POST("/session", handler.Login)
		api.DELETE("/session", handler.Logout)
	}

	return engine
}
