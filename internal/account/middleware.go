package account

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"content-pipeline/shared/models"
)

// Header names carrying the caller identity.
const (
	HeaderAccountID = "x-account-id"
	HeaderUserID    = "x-user-id"
	HeaderUserRole  = "x-user-role"
)

// Middleware resolves the identity headers into the request context.
// Requests without an account are rejected with 401.
func Middleware(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AccountMiddleware")
	return func(c *gin.Context) {
		accountID := strings.TrimSpace(c.GetHeader(HeaderAccountID))
		if accountID == "" {
			log.Debug("Request without account", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeNoAccount,
				Message: models.ErrNoAccount.Error(),
			})
			return
		}
		role, err := ParseRole(c.GetHeader(HeaderUserRole))
		if err != nil {
			status, code := http.StatusForbidden, models.ErrCodeForbidden
			if !errors.Is(err, models.ErrForbidden) {
				status, code = http.StatusBadRequest, models.ErrCodeBadRequest
			}
			c.AbortWithStatusJSON(status, models.ErrorResponse{Code: code, Message: err.Error()})
			return
		}
		id := Identity{
			AccountID: accountID,
			UserID:    strings.TrimSpace(c.GetHeader(HeaderUserID)),
			Role:      role,
		}
		c.Request = c.Request.WithContext(WithAccount(c.Request.Context(), id))
		c.Next()
	}
}
