package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
)

// DashboardHandler は管理者ダッシュボードのハンドラーです。
type DashboardHandler struct {
	svc claim.UseCase
	log *slog.Logger
}

// NewDashboardHandler は DashboardHandler を生成します。
func NewDashboardHandler(svc claim.UseCase, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

// DashboardResponse はダッシュボードの内容です。
type DashboardResponse struct {
	Summary SummaryResponse `json:"summary"`
	Recent  []ClaimResponse `json:"recent"`
}

// Get は集計と直近の請求を返します。
func (h *DashboardHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	result, err := h.svc.Dashboard(c.Request.Context(), claim.ListInput{Actor: p})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{
		Summary: toSummaryResponse(result.Summary),
		Recent:  toClaimResponses(result.Recent),
	})
}
