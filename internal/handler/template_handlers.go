package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"content-pipeline/internal/account"
	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
)

func (h *PipelineHandler) listTemplates(c *gin.Context) {
	templates, err := h.svc.Templates.ListTemplates(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *PipelineHandler) createTemplate(c *gin.Context) {
	var in models.NewTemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	tmpl, err := h.svc.Templates.CreateTemplate(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (h *PipelineHandler) getTemplate(c *gin.Context) {
	tmpl, err := h.svc.Templates.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *PipelineHandler) listVersions(c *gin.Context) {
	versions, err := h.svc.Templates.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

func (h *PipelineHandler) createVersion(c *gin.Context) {
	var in models.NewVersionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if in.CreatedBy == "" {
		if id, err := account.FromContext(c.Request.Context()); err == nil {
			in.CreatedBy = id.UserID
		}
	}
	version, err := h.svc.Templates.CreateVersion(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, version)
}

func (h *PipelineHandler) setCurrentVersion(c *gin.Context) {
	tmpl, err := h.svc.Templates.SetCurrentVersion(c.Request.Context(), c.Param("id"), c.Param("vid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *PipelineHandler) testVersion(c *gin.Context) {
	var in service.PreviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.Generator.Preview(c.Request.Context(), c.Param("id"), c.Param("vid"), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PipelineHandler) getGenerationDefaults(c *gin.Context) {
	defaults, err := h.svc.Generator.GetDefaults(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, defaults)
}

func (h *PipelineHandler) updateGenerationDefaults(c *gin.Context) {
	var in models.GenerationDefaults
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	defaults, err := h.svc.Generator.UpdateDefaults(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, defaults)
}

func (h *PipelineHandler) templateHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "invalid limit "+strconv.Quote(raw))
			return
		}
		limit = n
	}
	history, err := h.svc.Templates.GetHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *PipelineHandler) templateStats(c *gin.Context) {
	stats, err := h.svc.Templates.GetStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
