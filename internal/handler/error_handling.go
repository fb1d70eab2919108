package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"content-pipeline/internal/render"
	"content-pipeline/shared/models"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse
	var undefined *render.UndefinedVariableError

	switch {
	case errors.As(err, &undefined):
		statusCode = http.StatusUnprocessableEntity
		errResp = models.ErrorResponse{Code: models.ErrCodeUndefinedVariable, Message: err.Error(), Missing: undefined.Missing}
	case errors.Is(err, models.ErrNoAccount):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeNoAccount, Message: "Account context is required"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: err.Error()}
	case errors.Is(err, models.ErrNoTemplate):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNoTemplate, Message: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Resource not found"}
	case errors.Is(err, models.ErrInvalidTransition):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidTransition, Message: err.Error()}
	case errors.Is(err, models.ErrJobTerminal):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeJobTerminal, Message: err.Error()}
	case errors.Is(err, models.ErrConflictingCurrent), errors.Is(err, models.ErrDuplicateVersionNumber):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflictingCurrent, Message: "Concurrent template update, try again"}
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrUnsafeContent):
		statusCode = http.StatusUnprocessableEntity
		errResp = models.ErrorResponse{Code: models.ErrCodeUnsafeContent, Message: "Generated content was flagged as unsafe"}
	case errors.Is(err, models.ErrRateLimited):
		statusCode = http.StatusTooManyRequests
		errResp = models.ErrorResponse{Code: models.ErrCodeRateLimited, Message: "Provider rate limit reached, try again later"}
	case errors.Is(err, models.ErrQuotaExceeded):
		statusCode = http.StatusTooManyRequests
		errResp = models.ErrorResponse{Code: models.ErrCodeQuotaExceeded, Message: "Provider quota exceeded"}
	case errors.Is(err, models.ErrProviderUnavailable):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeProviderError, Message: err.Error()}
	case errors.Is(err, models.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		statusCode = http.StatusGatewayTimeout
		errResp = models.ErrorResponse{Code: models.ErrCodeTimeout, Message: "Provider call timed out"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.String("path", c.FullPath()), zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: message})
}
