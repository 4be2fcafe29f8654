package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bob/internal/logger"
)

// HeaderRequestID 请求 ID 头，支持上游传递
const HeaderRequestID = "X-Request-ID"

// RequestID 为每个请求分配请求 ID 并注入日志上下文
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Next()
	}
}
