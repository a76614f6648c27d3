package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"brainboost/internal/analytics"
	"brainboost/internal/api/middleware"
	"brainboost/internal/auth"
	"brainboost/internal/chat"
	"brainboost/internal/resource"
	"brainboost/internal/studyplan"
)

// Deps 汇集路由所需的全部依赖，在进程启动时构造一次。
type Deps struct {
	DB                    *gorm.DB
	Auth                  *auth.AuthService
	Redis                 redisRateCounter
	Logger                *slog.Logger
	LoginRateLimitPerHour int

	StudyPlans *studyplan.Service
	Resources  *resource.Service
	Chats      *chat.Service
	Analytics  *analytics.Service
	Generator  TopicGenerator
}

// RegisterRoutes 在 /api 下注册全部业务路由。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	authHandler := NewAuthHandler(deps.DB, deps.Auth, deps.Redis, deps.Logger, deps.LoginRateLimitPerHour)
	planHandler := NewStudyPlanHandler(deps.StudyPlans)
	generationHandler := NewGenerationHandler(deps.Generator)
	resourceHandler := NewResourceHandler(deps.Resources)
	chatHandler := NewChatHandler(deps.Chats)
	analyticsHandler := NewAnalyticsHandler(deps.Analytics)
	authMiddleware := middleware.AuthMiddleware(deps.Auth, deps.DB)

	api := router.Group("/api")
	{
		users := api.Group("/users")
		users.POST("/register", authHandler.Register)
		users.POST("/login", authHandler.Login)
		users.GET("/me", authMiddleware, authHandler.Me)
		users.PUT("/me", authMiddleware, authHandler.UpdateMe)

		protected := api.Group("")
		protected.Use(authMiddleware)

		protected.POST("/study-plans", planHandler.Create)
		protected.GET("/study-plans", planHandler.List)
		protected.GET("/study-plans/:id", planHandler.Get)
		protected.PATCH("/study-plans/:id/tasks/:taskId", planHandler.SetTaskCompletion)

		protected.POST("/generate-explanation", generationHandler.Explanation)
		protected.POST("/generate-questions", generationHandler.Questions)
		protected.POST("/generate-flashcards", resourceHandler.GenerateFlashcards)
		protected.POST("/generate-notes", resourceHandler.GenerateNotes)

		protected.POST("/resources/flashcards", resourceHandler.UpsertFlashcards)
		protected.GET("/resources", resourceHandler.List)
		protected.POST("/resources/:id/export", resourceHandler.Export)

		protected.POST("/chat", chatHandler.Send)
		protected.GET("/chat/history", chatHandler.History)
		protected.DELETE("/chat/history", chatHandler.Clear)

		protected.GET("/analytics/study-time", analyticsHandler.StudyTime)
	}
}
