package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/internal/service"
)

// Services are the collaborators behind the HTTP surface.
type Services struct {
	Templates service.TemplateService
	Generator service.ContentGenerator
	Jobs      service.JobService
	Logs      LogTailer
	Contents  service.ContentService
	Workflows service.WorkflowService
	Images    service.ImageService
}

// PipelineHandler serves the account-scoped content pipeline API.
type PipelineHandler struct {
	svc              Services
	logger           *zap.Logger
	logPollInterval  time.Duration
	defaultTailLimit int
}

// NewPipelineHandler creates the HTTP handler.
func NewPipelineHandler(svc Services, defaultTailLimit int, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{
		svc:              svc,
		logger:           logger.Named("PipelineHandler"),
		logPollInterval:  2 * time.Second,
		defaultTailLimit: defaultTailLimit,
	}
}

// RegisterRoutes mounts every route behind the account middleware.
// enqueueLimiter guards POST /jobs; nil disables it.
func (h *PipelineHandler) RegisterRoutes(router gin.IRouter, enqueueLimiter gin.HandlerFunc) {
	api := router.Group("", account.Middleware(h.logger))

	enqueue := []gin.HandlerFunc{h.enqueueJob}
	if enqueueLimiter != nil {
		enqueue = append([]gin.HandlerFunc{enqueueLimiter}, enqueue...)
	}
	jobs := api.Group("/jobs")
	{
		jobs.POST("", enqueue...)
		jobs.GET("", h.listJobs)
		jobs.GET("/:id", h.getJob)
		jobs.POST("/:id/cancel", h.cancelJob)
		jobs.POST("/:id/retry", h.retryJob)
		jobs.GET("/:id/logs", h.jobLogs)
	}

	logs := api.Group("/logs")
	{
		logs.GET("", h.tailLogs)
		logs.DELETE("", h.clearLogs)
		logs.GET("/stats", h.logStats)
	}
	api.GET("/ws/logs", h.streamLogs)

	templates := api.Group("/prompts/templates")
	{
		templates.GET("", h.listTemplates)
		templates.POST("", h.createTemplate)
		templates.GET("/:id", h.getTemplate)
		templates.GET("/:id/versions", h.listVersions)
		templates.POST("/:id/versions", h.createVersion)
		templates.PUT("/:id/versions/:vid/current", h.setCurrentVersion)
		templates.POST("/:id/versions/:vid/test", h.testVersion)
		templates.GET("/:id/history", h.templateHistory)
		templates.GET("/:id/stats", h.templateStats)
	}

	workflows := api.Group("/workflows")
	{
		workflows.GET("", h.listWorkflows)
		workflows.POST("", h.createWorkflow)
		workflows.GET("/:id", h.getWorkflow)
		workflows.PUT("/:id/steps", h.replaceWorkflowSteps)
	}

	settings := api.Group("/settings")
	{
		settings.GET("/text-generation", h.getGenerationDefaults)
		settings.PUT("/text-generation", h.updateGenerationDefaults)
		settings.GET("/image-generation", h.getImageSettings)
		settings.PUT("/image-generation", h.updateImageSettings)
		settings.GET("/brand-colors", h.listBrandColors)
		settings.POST("/brand-colors", h.addBrandColor)
		settings.DELETE("/brand-colors/:index", h.deleteBrandColor)
	}

	images := api.Group("/images")
	{
		images.POST("/generate-for-content/:content_id", h.generateImages)
		images.GET("/ideogram/options", h.ideogramOptions)
		images.PUT("/:image_id/status", h.updateImageStatus)
	}

	content := api.Group("/content")
	{
		content.GET("/:content_id", h.getContent)
		content.POST("/:content_id/status", h.updateContentStatus)
		content.GET("/:content_id/images", h.listContentImages)
	}
	api.GET("/stories/:story_id/content", h.listStoryContent)
}

// HealthCheck answers liveness checks.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
