package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger はリクエストの結果をステータスに応じたレベルで記録します。
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if route := c.FullPath(); route != "" {
			attrs = append(attrs, "route", route)
		}

		// 認証後のユーザー情報を含めるため、ハンドラー実行後のコンテキストを使う
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "request completed", attrs...)
		case status >= 400:
			log.WarnContext(ctx, "request completed", attrs...)
		default:
			log.InfoContext(ctx, "request completed", attrs...)
		}
	}
}
