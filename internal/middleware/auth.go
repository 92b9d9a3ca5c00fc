package middleware

import (
	"context"
	"strings"
	"time"

	"matbook-backend/internal/errors"
	"matbook-backend/internal/util"

	"github.com/gin-gonic/gin"
)

// 认证属于外部协作方，这里只做最窄的接口：
// 校验 Bearer 令牌并把查看者ID放进请求上下文。

// AuthMiddleware 要求请求携带有效令牌
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "无效的认证格式"))
			c.Abort()
			return
		}

		userID, err := util.ValidateToken(parts[1])
		if err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "无效或过期的令牌", err))
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalAuthMiddleware 尝试解析令牌，失败时按匿名查看者放行。
// 匿名查看者的查看者范围成员集合取数后自然为空。
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				if userID, err := util.ValidateToken(parts[1]); err == nil {
					c.Set("user_id", userID)
				}
			}
		}
		c.Next()
	}
}

// ViewerID 返回请求上下文里的查看者ID，匿名时为 0
func ViewerID(c *gin.Context) int {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}
