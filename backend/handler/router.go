package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SergeyShakirov/TaskGo/backend/config"
	"github.com/SergeyShakirov/TaskGo/backend/middleware"
	"github.com/SergeyShakirov/TaskGo/backend/model"
)

const maxBodyBytes = 10 << 20

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	AI     *AIHandler
	Export *ExportHandler
	Tasks  *TaskHandler
}

// NewRouter builds the gin engine with the full middleware chain and the
// /health, /api/ai, /api/export and /api/tasks routes.
func NewRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(!cfg.IsProduction()))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecureHeaders())
	router.Use(middleware.CORS(cfg.AllowedOrigins()))
	router.Use(middleware.BodyLimit(maxBodyBytes))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "TaskGo Backend is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	api := router.Group("/api")
	api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window())))
	api.Use(middleware.NoStore())

	ai := api.Group("/ai")
	{
		ai.POST("/generate-description", h.AI.GenerateDescription)
		ai.POST("/estimate", h.AI.Estimate)
		ai.POST("/suggest-improvements", h.AI.SuggestImprovements)
		ai.POST("/suggest-categories", h.AI.SuggestCategories)
		ai.POST("/analyze-complexity", h.AI.AnalyzeComplexity)

		ai.POST("/deepseek/generate", h.AI.GenerateDescription)
		ai.POST("/deepseek/estimate", h.AI.Estimate)
		ai.POST("/deepseek/improve", h.AI.SuggestImprovements)
	}

	export := api.Group("/export")
	{
		export.POST("/word", h.Export.Word)
		export.POST("/pdf", h.Export.PDF)
		export.GET("/templates", h.Export.Templates)
		export.GET("/download/:fileName", h.Export.Download)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.Tasks.List)
		tasks.GET("/:id", h.Tasks.Get)
		tasks.POST("", h.Tasks.Create)
		tasks.PUT("/:id", h.Tasks.Update)
		tasks.DELETE("/:id", h.Tasks.Delete)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, model.Response{Success: false, Message: "Route not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, model.Response{Success: false, Message: "Method not allowed"})
	})

	return router
}
