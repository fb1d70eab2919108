package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"content-pipeline/shared/models"
	"content-pipeline/shared/utils"
)

type enqueueRequest struct {
	Type    models.JobType  `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

type enqueueResponse struct {
	JobID     string           `json:"job_id"`
	Status    models.JobStatus `json:"status"`
	Duplicate bool             `json:"duplicate,omitempty"`
}

func (h *PipelineHandler) enqueueJob(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.Jobs.Enqueue(c.Request.Context(), req.Type, req.Payload)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	status := http.StatusAccepted
	if res.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, enqueueResponse{JobID: res.Job.ID, Status: res.Job.Status, Duplicate: res.Duplicate})
}

func (h *PipelineHandler) listJobs(c *gin.Context) {
	limit, offset, err := utils.ParseLimitOffset(c.Query("limit"), c.Query("offset"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	filter := models.JobFilter{
		Status: models.JobStatus(c.Query("status")),
		Type:   models.JobType(c.Query("type")),
		Limit:  limit,
		Offset: offset,
	}
	jobs, err := h.svc.Jobs.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "limit": limit, "offset": offset})
}

func (h *PipelineHandler) getJob(c *gin.Context) {
	job, err := h.svc.Jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *PipelineHandler) cancelJob(c *gin.Context) {
	job, err := h.svc.Jobs.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("Job cancel requested", zap.String("job_id", job.ID), zap.String("status", string(job.Status)))
	c.JSON(http.StatusOK, job)
}

func (h *PipelineHandler) retryJob(c *gin.Context) {
	res, err := h.svc.Jobs.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, enqueueResponse{JobID: res.Job.ID, Status: res.Job.Status, Duplicate: res.Duplicate})
}

func (h *PipelineHandler) jobLogs(c *gin.Context) {
	filter, ok := h.parseLogFilter(c)
	if !ok {
		return
	}
	tail, err := h.svc.Jobs.Logs(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tail)
}
