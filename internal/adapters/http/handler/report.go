package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ogurasousui/contract-claims/internal/adapters/report"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
)

const csvContentType = "text/csv; charset=utf-8"

// ReportHandler は管理者向けレポート API のハンドラーです。
type ReportHandler struct {
	svc claim.UseCase
	log *slog.Logger
	now func() time.Time
}

// NewReportHandler は ReportHandler を生成します。
func NewReportHandler(svc claim.UseCase, log *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, log: log, now: time.Now}
}

// Summary は集計結果を JSON で返します。
func (h *ReportHandler) Summary(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	s, err := h.svc.Summarize(c.Request.Context(), claim.ListInput{Actor: p})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toSummaryResponse(*s))
}

// ClaimsCSV は全請求を CSV で返します。
func (h *ReportHandler) ClaimsCSV(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	claims, err := h.svc.ExportClaims(c.Request.Context(), claim.ListInput{Actor: p})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	// 途中で失敗した場合に部分的な CSV を返さないよう、バッファしてから書き出す
	var buf bytes.Buffer
	if err := report.WriteClaims(&buf, claims); err != nil {
		writeError(c, h.log, err)
		return
	}
	h.attachment(c, report.ClaimsFileName(h.now()), buf.Bytes())
}

// SummaryCSV は集計結果を CSV で返します。
func (h *ReportHandler) SummaryCSV(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	s, err := h.svc.Summarize(c.Request.Context(), claim.ListInput{Actor: p})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteSummary(&buf, *s); err != nil {
		writeError(c, h.log, err)
		return
	}
	h.attachment(c, report.SummaryFileName(s.GeneratedAt), buf.Bytes())
}

func (h *ReportHandler) attachment(c *gin.Context, name string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, csvContentType, body)
}
