package middleware

import (
	"sync"
	"time"

	"matbook-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorMonitor struct {
	errorCounts map[errors.ErrorCode]int
	analytics   *errors.ErrorAnalytics
	mu          sync.RWMutex
}

func NewErrorMonitor(analytics *errors.ErrorAnalytics) *ErrorMonitor {
	return &ErrorMonitor{
		errorCounts: make(map[errors.ErrorCode]int),
		analytics:   analytics,
	}
}

func (m *ErrorMonitor) RecordError(err error, ctx errors.ErrorContext) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		return
	}
	m.mu.Lock()
	m.errorCounts[appErr.Code]++
	m.mu.Unlock()

	if m.analytics != nil {
		m.analytics.Record(errors.NewTracedError(appErr, ctx))
	}
}

func (m *ErrorMonitor) GetErrorCounts() map[errors.ErrorCode]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[errors.ErrorCode]int)
	for code, count := range m.errorCounts {
		counts[code] = count
	}
	return counts
}

func ErrorMonitorMiddleware(monitor *ErrorMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			ctx := errors.ErrorContext{
				ViewerID:  ViewerID(c),
				Path:      c.Request.URL.Path,
				Method:    c.Request.Method,
				Timestamp: time.Now(),
			}
			for _, e := range c.Errors {
				monitor.RecordError(e.Err, ctx)
				// 记录错误日志
				if appErr, ok := e.Err.(*errors.AppError); ok {
					zap.L().Error("请求处理错误",
						zap.Int("error_code", int(appErr.Code)),
						zap.String("error_message", appErr.Message),
						zap.Error(appErr.Err),
						zap.String("path", c.Request.URL.Path),
						zap.String("method", c.Request.Method))
				}
			}
		}
	}
}
