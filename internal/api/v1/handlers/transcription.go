package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"audioscribe/internal/api/errors"
	"audioscribe/internal/api/middleware"
	"audioscribe/internal/api/v1/dto"
	"audioscribe/internal/api/v1/services"
)

// maxUploadBytes caps a single upload at 1 GiB.
const maxUploadBytes = 1 << 30

// TranscriptionHandler exposes the upload and job-polling endpoints.
type TranscriptionHandler struct {
	service services.TranscriptionService
}

func NewTranscriptionHandler(service services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{service: service}
}

// Upload handles POST /api/v1/transcribe. The multipart field "file" is
// stored and queued; the 202 response carries the job ID to poll.
func (h *TranscriptionHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError(`multipart field "file" is required`))
		return
	}
	if header.Size > maxUploadBytes {
		middleware.HandleError(c, errors.NewBadRequestError("file exceeds the upload size limit"))
		return
	}

	src, err := header.Open()
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("unreadable upload"))
		return
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to read upload"))
		return
	}

	response, err := h.service.Submit(c.Request.Context(), header.Filename, content)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, response)
}

// Get handles GET /api/v1/jobs/:id.
func (h *TranscriptionHandler) Get(c *gin.Context) {
	jobID := c.Param("id")

	response, err := h.service.GetJob(c.Request.Context(), jobID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if response == nil {
		middleware.HandleError(c, errors.NewNotFoundError("job"))
		return
	}

	c.JSON(http.StatusOK, response)
}

// List handles GET /api/v1/jobs.
func (h *TranscriptionHandler) List(c *gin.Context) {
	var query dto.ListJobsQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.ListJobs(c.Request.Context(), query.Limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
