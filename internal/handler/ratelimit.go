package handler

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/shared/models"
)

// NewEnqueueLimiter limits job submissions per account with a Redis-backed
// fixed window of one minute.
func NewEnqueueLimiter(client *redis.Client, perMinute int, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("EnqueueLimiter")
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: client,
		Rate:        time.Minute,
		Limit:       uint(perMinute),
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			log.Warn("Enqueue rate limit exceeded",
				zap.String("account_id", c.GetHeader(account.HeaderAccountID)),
				zap.Time("reset_time", info.ResetTime),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    models.ErrCodeRateLimited,
				Message: "Too many jobs submitted. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return "enqueue:" + c.GetHeader(account.HeaderAccountID)
		},
	})
}
