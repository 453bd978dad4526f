package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ogurasousui/contract-claims/internal/platform/logger"
)

// RequestIDHeader はリクエスト ID を受け渡すヘッダーです。
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID はリクエストごとに ID を採番し、レスポンスヘッダーとログのコンテキストに載せます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set(requestIDKey, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// GetRequestID は gin コンテキストからリクエスト ID を取得します。
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
