package middleware

import (
	"fmt"
	"time"

	"matbook-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RecoveryMiddleware(analytics *errors.ErrorAnalytics) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				traced := errors.NewTracedError(
					fmt.Errorf("panic: %v", r),
					errors.ErrorContext{
						ViewerID:  ViewerID(c),
						Path:      c.Request.URL.Path,
						Method:    c.Request.Method,
						Timestamp: time.Now(),
					},
				)
				zap.L().Error("发生panic",
					zap.Any("error", r),
					zap.String("stack", traced.Stack))
				if analytics != nil {
					analytics.Record(traced)
				}

				errors.HandleError(c, errors.New(errors.ErrInternal, "系统内部错误"))
				c.Abort()
			}
		}()
		c.Next()
	}
}
