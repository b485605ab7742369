package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/service"
)

// ClaimsContextKey 上下文中保存令牌声明的键
const ClaimsContextKey = "familytree.claims"

// AuthMiddleware 认证中间件，未配置密钥时直接放行
func AuthMiddleware(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil || !auth.Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			unauthorized(c, service.AsAppError(err).Public())
			return
		}
		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// GetClaims 获取当前请求的令牌声明
func GetClaims(c *gin.Context) (*service.Claims, bool) {
	v, ok := c.Get(ClaimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.Claims)
	return claims, ok
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": message})
}
