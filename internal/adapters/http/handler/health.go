package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler は依存先の疎通を確認します。
type HealthHandler struct {
	check func(context.Context) error
	log   *slog.Logger
}

// NewHealthHandler は HealthHandler を生成します。check が nil の場合は常に正常を返します。
func NewHealthHandler(check func(context.Context) error, log *slog.Logger) *HealthHandler {
	return &HealthHandler{check: check, log: log}
}

// Get は疎通結果を返します。
func (h *HealthHandler) Get(c *gin.Context) {
	if h.check != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		if err := h.check(ctx); err != nil {
			h.log.WarnContext(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
