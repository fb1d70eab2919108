package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"content-pipeline/internal/provider"
	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
)

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *PipelineHandler) getImageSettings(c *gin.Context) {
	settings, err := h.svc.Images.GetSettings(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *PipelineHandler) updateImageSettings(c *gin.Context) {
	var in service.ImageSettingsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	settings, err := h.svc.Images.UpdateSettings(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *PipelineHandler) listBrandColors(c *gin.Context) {
	colors, err := h.svc.Images.ListBrandColors(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, colors)
}

func (h *PipelineHandler) addBrandColor(c *gin.Context) {
	var in models.BrandColorTemplate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	colors, err := h.svc.Images.AddBrandColor(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, colors)
}

func (h *PipelineHandler) deleteBrandColor(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		badRequest(c, "invalid brand color index "+strconv.Quote(c.Param("index")))
		return
	}
	colors, err := h.svc.Images.DeleteBrandColor(c.Request.Context(), index)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, colors)
}

func (h *PipelineHandler) generateImages(c *gin.Context) {
	var req models.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	contentID := c.Param("content_id")
	gen, err := h.svc.Images.Generate(c.Request.Context(), contentID, req, nil)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if gen.StyleCoerced {
		h.logger.Info("Image style coerced",
			zap.String("content_id", contentID),
			zap.String("requested", req.StyleType),
			zap.String("used", gen.StyleType),
		)
	}
	c.JSON(http.StatusCreated, gen)
}

func (h *PipelineHandler) ideogramOptions(c *gin.Context) {
	c.JSON(http.StatusOK, provider.OptionsFor(c.Query("modelVersion")))
}

func (h *PipelineHandler) updateImageStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	img, err := h.svc.Images.UpdateStatus(c.Request.Context(), c.Param("image_id"), models.ImageStatus(req.Status))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

func (h *PipelineHandler) listContentImages(c *gin.Context) {
	images, err := h.svc.Images.ListForContent(c.Request.Context(), c.Param("content_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}
