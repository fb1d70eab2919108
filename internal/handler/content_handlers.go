package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
)

func (h *PipelineHandler) getContent(c *gin.Context) {
	item, err := h.svc.Contents.Get(c.Request.Context(), c.Param("content_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *PipelineHandler) updateContentStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	item, err := h.svc.Contents.UpdateStatus(c.Request.Context(), c.Param("content_id"), models.ContentStatus(req.Status))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *PipelineHandler) listStoryContent(c *gin.Context) {
	storyID, err := strconv.ParseInt(c.Param("story_id"), 10, 64)
	if err != nil || storyID <= 0 {
		badRequest(c, "invalid story id "+strconv.Quote(c.Param("story_id")))
		return
	}
	items, err := h.svc.Contents.ListByStory(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *PipelineHandler) listWorkflows(c *gin.Context) {
	workflows, err := h.svc.Workflows.ListWorkflows(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workflows)
}

func (h *PipelineHandler) createWorkflow(c *gin.Context) {
	var in service.NewWorkflowInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	wf, err := h.svc.Workflows.CreateWorkflow(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wf)
}

func (h *PipelineHandler) getWorkflow(c *gin.Context) {
	wf, err := h.svc.Workflows.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (h *PipelineHandler) replaceWorkflowSteps(c *gin.Context) {
	var req struct {
		Steps []models.WorkflowStep `json:"steps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	wf, err := h.svc.Workflows.ReplaceSteps(c.Request.Context(), c.Param("id"), req.Steps)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}
