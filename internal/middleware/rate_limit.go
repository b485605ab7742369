package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"familytree_go/internal/service"
)

// RateLimit 按客户端IP限流，限流器出错时放行
func RateLimit(limiter service.Limiter, metrics *service.Metrics, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
		}
		if !allowed {
			metrics.ObserveRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many requests"})
			return
		}
		c.Next()
	}
}
