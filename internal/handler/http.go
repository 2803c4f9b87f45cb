package handler

import (
	"net/http"

	"story-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler обслуживает HTTP API истории.
type Handler struct {
	services *service.Services
	logger   *zap.Logger
}

// NewHandler создает обработчик поверх сервисного слоя.
func NewHandler(services *service.Services, logger *zap.Logger) *Handler {
	return &Handler{services: services, logger: logger.Named("Handler")}
}

// RegisterRoutes регистрирует маршруты. generation применяется только к маршрутам,
// вызывающим AI-провайдера.
func (h *Handler) RegisterRoutes(router *gin.Engine, generation ...gin.HandlerFunc) {
	router.GET("/health", h.health)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", h.login)
		authGroup.POST("/updateSettings", h.updateSettings)
		authGroup.POST("/character", h.createCharacter)
		authGroup.DELETE("/character", h.deleteCharacterByQuery)
		authGroup.POST("/character/delete", h.deleteCharacter)
	}

	storyGroup := router.Group("/api/story")
	{
		storyGroup.POST("/create", withMiddleware(generation, h.createStory)...)
		storyGroup.POST("/options", withMiddleware(generation, h.generateOptions)...)
		storyGroup.POST("/continue", withMiddleware(generation, h.continueStory)...)
		storyGroup.POST("/delete", h.deleteStory)
		storyGroup.GET("/preferences", h.getPreferences)
		storyGroup.POST("/preferences", h.setPreference)
		storyGroup.POST("/feedback", withMiddleware(generation, h.feedback)...)
		storyGroup.POST("/share", h.shareStory)
		storyGroup.GET("/share", h.getSharedStory)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func withMiddleware(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(mw)+1)
	chain = append(chain, mw...)
	return append(chain, h)
}
