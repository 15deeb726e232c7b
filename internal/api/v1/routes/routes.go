package routes

import (
	"github.com/gin-gonic/gin"

	"audioscribe/internal/api/v1/handlers"
	"audioscribe/internal/api/v1/services"
)

// ServiceContainer bundles the services the v1 routes depend on.
type ServiceContainer struct {
	TranscriptionService services.TranscriptionService
}

// RegisterRoutes mounts the v1 API under the given group.
func RegisterRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	transcription := handlers.NewTranscriptionHandler(container.TranscriptionService)

	rg.POST("/transcribe", transcription.Upload)

	jobs := rg.Group("/jobs")
	{
		jobs.GET("", transcription.List)
		jobs.GET("/:id", transcription.Get)
	}
}
