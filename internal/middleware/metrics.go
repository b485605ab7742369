package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/service"
)

// Metrics 按路由模板记录请求数和耗时
func Metrics(m *service.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
